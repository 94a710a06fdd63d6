// Package cache stores holder lookups fetched from the dashboard API so
// repeated lookups stay off the network.
//
// Entries carry a TTL and are expired lazily: nothing sweeps the store
// in the background, an entry is checked and dropped when it is next
// touched. The store also holds at most MaxEntries entries; inserting a
// new key into a full store first evicts the entry with the oldest
// timestamp.
//
// # Persistence
//
// The store survives process restarts as a single JSON blob,
// holders-v1.json, in the whohas state directory. It carries two
// parallel maps plus the hit/miss counters:
//
//	{
//	  "values":   { "blue-jelly": [ { "holderName": "Tingle", "quantity": 4 } ] },
//	  "storedAt": { "blue-jelly": 1754952611000 },
//	  "hits": 12,
//	  "misses": 3
//	}
//
// Timestamps are Unix milliseconds. The format is versioned through the
// filename; a breaking change bumps it to holders-v2.json. A missing or
// corrupt blob is not an error: the store simply starts cold.
//
// # Concurrency
//
// Within a process every method locks the store's mutex. Across
// processes, commands that touch the blob open the store through
// [OpenLocked], which holds a flock on holders-v1.lock for the life of
// the command.
package cache
