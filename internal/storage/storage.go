// Package storage provides the ~/.whohas state directory and atomic
// JSON file operations used by the cache, watchlist and preload state.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EnvDir overrides the state directory when set.
const EnvDir = "WHOHAS_DIR"

// TmpSuffix marks the scratch file SaveJSON writes before renaming.
// The doctor treats leftovers with this suffix as interrupted writes.
const TmpSuffix = ".tmp"

// Dir returns the path to the state directory, creating it if needed.
// Defaults to ~/.whohas; WHOHAS_DIR takes precedence.
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".whohas")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// SaveJSON writes data as indented JSON to path, creating the parent
// directory if needed. The write goes to a TmpSuffix sibling first and
// is renamed into place, so readers never see a half-written file.
func SaveJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tempPath := path + TmpSuffix
	if err := os.WriteFile(tempPath, jsonData, 0o600); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// LoadJSON reads JSON from path into dest. A missing file returns the
// raw *fs.PathError, unwrapped, so callers can branch on
// errors.Is(err, fs.ErrNotExist).
func LoadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}
