// Package resolve suggests item keys when a command is given one it
// does not know.
//
// Key-taking commands (cache remove, cache has, watch remove) collect
// the pool of known keys from the cache and the watchlist, and on a
// miss print up to three fuzzy-ranked "did you mean" candidates.
// Ranking comes from the sahilm/fuzzy library; the pool is merged and
// deduplicated here so every command reports the same suggestions.
package resolve
