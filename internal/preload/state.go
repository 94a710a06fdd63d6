package preload

import (
	"path/filepath"
	"time"

	"github.com/Ruutuli/whohas/internal/storage"
)

// stateName is versioned like the holders blob: a schema change bumps
// the filename.
const stateName = "preload-v1.json"

// State is the slice of breaker state that survives between whohas
// invocations. The in-process failure counter is meaningless across
// processes, but the disabled flag must stick or the breaker would
// reset on every command.
type State struct {
	Disabled  bool      `json:"disabled"`
	TrippedAt time.Time `json:"trippedAt,omitzero"`
	Failures  int       `json:"failures,omitempty"`
}

// StatePath returns the preload state file inside dir.
func StatePath(dir string) string {
	return filepath.Join(dir, stateName)
}

// LoadState reads the persisted breaker state. A missing or corrupt
// file means the default: enabled, no failures.
func LoadState(dir string) State {
	var st State
	if err := storage.LoadJSON(StatePath(dir), &st); err != nil {
		return State{}
	}
	return st
}

// SaveState persists st atomically.
func SaveState(dir string, st State) error {
	return storage.SaveJSON(StatePath(dir), st)
}

// BreakerFromState builds a breaker that carries the persisted
// disabled flag and trip time. threshold below 1 falls back to
// DefaultFailureThreshold.
func BreakerFromState(st State, threshold int) *Breaker {
	b := NewBreaker(threshold)
	b.disabled = st.Disabled
	b.trippedAt = st.TrippedAt
	b.failures = st.Failures
	return b
}

// State snapshots the breaker for persisting after a run.
func (b *Breaker) State() State {
	s := b.Status()
	return State{
		Disabled:  s.Disabled,
		TrippedAt: s.TrippedAt,
		Failures:  s.Failures,
	}
}
