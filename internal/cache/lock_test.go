package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLock_LockUnlock(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")
	lock := NewFileLock(lockPath)

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// Lock file should exist while held
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("lock file should exist after locking")
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	t.Parallel()

	lock := NewFileLock(filepath.Join(t.TempDir(), "never-locked.lock"))

	if err := lock.Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error, got %v", err)
	}
}

func TestFileLock_DoubleUnlock(t *testing.T) {
	t.Parallel()

	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("first Unlock() error = %v", err)
	}

	// Second unlock should be safe (no-op)
	if err := lock.Unlock(); err != nil {
		t.Errorf("second Unlock() should not error, got %v", err)
	}
}

func TestFileLock_BlocksSecondHolder(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	first := NewFileLock(lockPath)
	if err := first.Lock(); err != nil {
		t.Fatalf("first Lock() error = %v", err)
	}

	done := make(chan bool)
	go func() {
		second := NewFileLock(lockPath)
		if err := second.Lock(); err != nil {
			t.Errorf("second Lock() error = %v", err)
			return
		}
		second.Unlock()
		done <- true
	}()

	// The second holder must still be blocked
	select {
	case <-done:
		t.Error("second lock should have blocked while first is held")
	case <-time.After(30 * time.Millisecond):
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("first Unlock() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("second lock should have acquired after first released")
	}
}

func TestFileLock_Reacquire(t *testing.T) {
	t.Parallel()

	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	for i := 0; i < 3; i++ {
		if err := lock.Lock(); err != nil {
			t.Fatalf("iteration %d: Lock() error = %v", i, err)
		}
		if err := lock.Unlock(); err != nil {
			t.Fatalf("iteration %d: Unlock() error = %v", i, err)
		}
	}
}

func TestFileLock_InvalidPath(t *testing.T) {
	t.Parallel()

	lock := NewFileLock("/non-existent-dir/test.lock")
	if err := lock.Lock(); err == nil {
		lock.Unlock()
		t.Error("expected error for lock in non-existent directory")
	}
}
