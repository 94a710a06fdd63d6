// Package preload warms the holders cache ahead of lookups.
//
// The dashboard API is rate-sensitive, so fetches run slowly on
// purpose: a single worker walks the candidate keys in order, batch by
// batch, with a delay between items and a longer one between batches.
// Keys already fresh in the store are skipped.
//
// A circuit breaker counts consecutive failed fetch attempts within a
// run. At the threshold it opens and the rest of the run is abandoned;
// an open breaker refuses later runs outright. The breaker never closes
// on its own. Someone has to run "whohas preload enable", or force a
// run, which closes it for that one supervised run and lets it trip
// again. Because each whohas invocation is a fresh process, the
// disabled flag is persisted in preload-v1.json.
package preload
