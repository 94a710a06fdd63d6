// Package history tracks recently looked-up item keys. This enables
// `whohas lookup` with no arguments to repeat the most recent lookup.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ruutuli/whohas/internal/storage"
)

const fileName = "history.json"

// maxEntries caps the history file so it cannot grow without bound.
const maxEntries = 50

// Entry records the lookups of a single item key.
type Entry struct {
	Key        string    `json:"key"`
	Lookups    int       `json:"lookups"`
	LastLookup time.Time `json:"lastLookup"`
}

// History holds the recorded lookups, capped at maxEntries.
type History struct {
	Entries []Entry `json:"entries"`
}

// Path returns the history file inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Load reads the history from path. A missing file is an empty history.
func Load(path string) (*History, error) {
	var h History
	if err := storage.LoadJSON(path, &h); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &History{}, nil
		}
		return nil, fmt.Errorf("read lookup history: %w", err)
	}
	return &h, nil
}

// Save writes the history to path atomically.
func (h *History) Save(path string) error {
	return storage.SaveJSON(path, h)
}

// Record notes a lookup of key: an existing entry is bumped, a new one
// appended. When the history is full the least recently used entry is
// evicted.
func Record(key, path string) error {
	h, err := Load(path)
	if err != nil {
		return err
	}

	now := time.Now()
	bumped := false
	for i := range h.Entries {
		if h.Entries[i].Key == key {
			h.Entries[i].Lookups++
			h.Entries[i].LastLookup = now
			bumped = true
			break
		}
	}
	if !bumped {
		h.Entries = append(h.Entries, Entry{Key: key, Lookups: 1, LastLookup: now})
	}

	for len(h.Entries) > maxEntries {
		h.evictOldest()
	}

	return h.Save(path)
}

// MostRecent returns the key of the latest lookup, or "" when no
// lookups have been recorded.
func MostRecent(path string) (string, error) {
	h, err := Load(path)
	if err != nil {
		return "", err
	}

	var key string
	var at time.Time
	for _, e := range h.Entries {
		if e.LastLookup.After(at) {
			key = e.Key
			at = e.LastLookup
		}
	}
	return key, nil
}

func (h *History) evictOldest() {
	oldest := 0
	for i, e := range h.Entries {
		if e.LastLookup.Before(h.Entries[oldest].LastLookup) {
			oldest = i
		}
	}
	h.Entries = append(h.Entries[:oldest], h.Entries[oldest+1:]...)
}
