package cache

import (
	"os"
	"syscall"
)

// FileLock serializes blob access across whohas processes using a
// blocking flock on a sibling lock file.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock for the given path. The lock file is
// created on first use and never removed.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock blocks until the exclusive lock is held.
func (l *FileLock) Lock() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return err
	}
	l.file = f
	return nil
}

// Unlock releases the lock by closing the descriptor; the kernel drops
// the flock on close. Unlock on an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
