package preload

import (
	"os"
	"testing"
	"time"
)

func TestLoadState_Missing(t *testing.T) {
	t.Parallel()

	st := LoadState(t.TempDir())
	if st.Disabled {
		t.Error("missing state file must default to enabled")
	}
}

func TestLoadState_Corrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(StatePath(dir), []byte("{{{"), 0o600); err != nil {
		t.Fatalf("write state: %v", err)
	}

	st := LoadState(dir)
	if st.Disabled {
		t.Error("corrupt state file must default to enabled")
	}
}

func TestState_Roundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	trippedAt := time.Now().Round(0)
	saved := State{Disabled: true, TrippedAt: trippedAt, Failures: 2}

	if err := SaveState(dir, saved); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	loaded := LoadState(dir)
	if !loaded.Disabled {
		t.Error("expected disabled flag to survive")
	}
	if !loaded.TrippedAt.Equal(trippedAt) {
		t.Errorf("expected trippedAt %v, got %v", trippedAt, loaded.TrippedAt)
	}
	if loaded.Failures != 2 {
		t.Errorf("expected 2 failures, got %d", loaded.Failures)
	}
}

func TestBreakerFromState(t *testing.T) {
	t.Parallel()

	trippedAt := time.Now()
	b := BreakerFromState(State{Disabled: true, TrippedAt: trippedAt, Failures: 3}, 3)

	if b.Allowed() {
		t.Error("breaker built from a disabled state must be open")
	}

	st := b.State()
	if !st.Disabled || st.Failures != 3 || !st.TrippedAt.Equal(trippedAt) {
		t.Errorf("state did not round-trip through the breaker: %+v", st)
	}
}

func TestBreakerFromState_Default(t *testing.T) {
	t.Parallel()

	b := BreakerFromState(State{}, 5)
	if !b.Allowed() {
		t.Error("breaker built from the zero state must be closed")
	}
	if got := b.Status().Threshold; got != 5 {
		t.Errorf("expected threshold 5, got %d", got)
	}
}
