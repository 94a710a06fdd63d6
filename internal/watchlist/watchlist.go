// Package watchlist manages the persisted list of item keys worth
// preloading, stored as watchlist.json in the whohas state directory.
// Order is user order: keys are preloaded in the sequence they were
// added.
package watchlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Ruutuli/whohas/internal/storage"
)

const fileName = "watchlist.json"

// Watchlist is an ordered list of item keys. Duplicates are rejected
// on Add, so every key appears at most once.
type Watchlist struct {
	Keys []string `json:"keys"`

	path string
}

// Path returns the watchlist file inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Load reads the watchlist from dir. A missing file is an empty
// watchlist; a corrupt one is an error, this is user-managed data and
// silently dropping it would lose it on the next Save.
func Load(dir string) (*Watchlist, error) {
	w := &Watchlist{Keys: []string{}, path: Path(dir)}

	if err := storage.LoadJSON(w.path, w); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return w, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	if w.Keys == nil {
		w.Keys = []string{}
	}
	return w, nil
}

// Save writes the watchlist back atomically.
func (w *Watchlist) Save() error {
	if err := storage.SaveJSON(w.path, w); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	return nil
}

// Add appends key, keeping insertion order. Watching a key twice is an
// error.
func (w *Watchlist) Add(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("item key must not be empty")
	}
	if w.Contains(key) {
		return fmt.Errorf("already watching %q", key)
	}
	w.Keys = append(w.Keys, key)
	return nil
}

// Remove drops key from the list.
func (w *Watchlist) Remove(key string) error {
	for i, k := range w.Keys {
		if k == key {
			w.Keys = slices.Delete(w.Keys, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("not watching %q", key)
}

// Contains reports whether key is on the list.
func (w *Watchlist) Contains(key string) bool {
	return slices.Contains(w.Keys, key)
}
