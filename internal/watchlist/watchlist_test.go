package watchlist

import (
	"os"
	"slices"
	"testing"
)

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	w, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(w.Keys) != 0 {
		t.Errorf("Keys = %v, want empty", w.Keys)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestWatchlist_SaveLoad_KeepsOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, key := range []string{"zora-scale", "blue-jelly", "amber-relic"} {
		if err := w.Add(key); err != nil {
			t.Fatalf("Add(%q) error = %v", key, err)
		}
	}
	if err := w.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() after save error = %v", err)
	}
	want := []string{"zora-scale", "blue-jelly", "amber-relic"}
	if !slices.Equal(got.Keys, want) {
		t.Errorf("Keys = %v, want %v", got.Keys, want)
	}
}

func TestWatchlist_Add(t *testing.T) {
	t.Parallel()

	w := &Watchlist{}
	if err := w.Add("blue-jelly"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := w.Add("blue-jelly"); err == nil {
		t.Error("Add() duplicate error = nil, want error")
	}
	if err := w.Add("   "); err == nil {
		t.Error("Add() blank key error = nil, want error")
	}
	if len(w.Keys) != 1 {
		t.Errorf("Keys = %v, want 1 entry", w.Keys)
	}
}

func TestWatchlist_Remove(t *testing.T) {
	t.Parallel()

	w := &Watchlist{Keys: []string{"a", "b", "c"}}
	if err := w.Remove("b"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if want := []string{"a", "c"}; !slices.Equal(w.Keys, want) {
		t.Errorf("Keys = %v, want %v", w.Keys, want)
	}

	if err := w.Remove("b"); err == nil {
		t.Error("Remove() missing key error = nil, want error")
	}
}

func TestWatchlist_Contains(t *testing.T) {
	t.Parallel()

	w := &Watchlist{Keys: []string{"blue-jelly"}}
	if !w.Contains("blue-jelly") {
		t.Error("Contains(blue-jelly) = false, want true")
	}
	if w.Contains("red-jelly") {
		t.Error("Contains(red-jelly) = true, want false")
	}
}
