package resolve

import (
	"slices"

	"github.com/sahilm/fuzzy"
)

// maxSuggestions caps how many candidates a "did you mean" message
// offers.
const maxSuggestions = 3

// Suggest returns up to three known keys resembling key, best match
// first. Returns nil when nothing comes close.
func Suggest(key string, known []string) []string {
	matches := fuzzy.Find(key, known)
	if len(matches) == 0 {
		return nil
	}

	n := min(len(matches), maxSuggestions)
	suggestions := make([]string, 0, n)
	for _, m := range matches[:n] {
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}

// Known merges key sources (cached keys, watched keys) into a single
// sorted pool without duplicates, ready for Suggest.
func Known(sources ...[]string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, source := range sources {
		for _, key := range source {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}
