package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ruutuli/whohas/internal/storage"
)

// The blob format is versioned through its filename: a breaking schema
// change bumps holders-v1 to holders-v2 instead of migrating in place.
const (
	blobName = "holders-v1.json"
	lockName = "holders-v1.lock"
)

// Defaults applied when Config fields are left zero.
const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 200
)

// Holding is a single holder of an item: the character's name and how
// many they hold. JSON field names follow the dashboard API wire format.
type Holding struct {
	Name     string `json:"holderName"`
	Quantity int    `json:"quantity"`
}

// Config fixes a store's freshness window and capacity. Both are set at
// construction and never change for the life of the store.
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// Store is a TTL- and capacity-bounded cache of holder lookups backed by
// a single JSON blob. values and stored are parallel maps keyed by item
// key and are always mutated together. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	values map[string][]Holding
	stored map[string]time.Time
	hits   int
	misses int
	dirty  bool

	cfg    Config
	path   string
	logger *log.Logger
}

// Blob is the on-disk shape of the store. StoredAt values are Unix
// milliseconds. Exported so diagnostics can inspect the file as it is,
// without the cleanup Open applies while loading.
type Blob struct {
	Values   map[string][]Holding `json:"values"`
	StoredAt map[string]int64     `json:"storedAt"`
	Hits     int                  `json:"hits"`
	Misses   int                  `json:"misses"`
}

// ReadBlob reads the raw blob under dir. Unlike Open it fails on a
// missing or unparseable file instead of falling back to an empty
// store.
func ReadBlob(dir string) (*Blob, error) {
	var b Blob
	if err := storage.LoadJSON(BlobPath(dir), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// BlobPath returns the path of the holders blob inside dir.
func BlobPath(dir string) string {
	return filepath.Join(dir, blobName)
}

// LockPath returns the path of the cross-process lock file inside dir.
func LockPath(dir string) string {
	return filepath.Join(dir, lockName)
}

// Open loads the store persisted under dir. A missing or unparseable
// blob yields an empty store; Open never fails on blob contents. Entries
// already expired under cfg.TTL are dropped at load, and if the blob
// holds more entries than cfg.MaxEntries (the bound shrank since the
// last run), the oldest are evicted until it fits.
//
// logger receives persistence warnings and may be nil.
func Open(dir string, cfg Config, logger *log.Logger) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Store{
		values: make(map[string][]Holding),
		stored: make(map[string]time.Time),
		cfg:    cfg,
		path:   BlobPath(dir),
		logger: logger,
	}
	s.load()
	return s
}

// OpenLocked acquires the cross-process lock for dir, then opens the
// store. The returned release function flushes pending counter changes
// and drops the lock. Caller must defer release() if err == nil.
func OpenLocked(dir string, cfg Config, logger *log.Logger) (*Store, func(), error) {
	lock := NewFileLock(LockPath(dir))
	if err := lock.Lock(); err != nil {
		return nil, nil, fmt.Errorf("failed to acquire cache lock: %w", err)
	}

	s := Open(dir, cfg, logger)

	release := func() {
		s.Flush()
		_ = lock.Unlock()
	}
	return s, release, nil
}

// load reads the blob into the store. A missing, unreadable or corrupt
// file means a cold start.
func (s *Store) load() {
	var b Blob
	if err := storage.LoadJSON(s.path, &b); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("ignoring unreadable holders blob", "path", s.path, "err", err)
		}
		return
	}

	now := time.Now()
	for key, ms := range b.StoredAt {
		value, ok := b.Values[key]
		if !ok {
			// Half an entry; the maps are only valid together.
			continue
		}
		at := time.UnixMilli(ms)
		if now.Sub(at) > s.cfg.TTL {
			continue
		}
		s.values[key] = value
		s.stored[key] = at
	}
	for len(s.stored) > s.cfg.MaxEntries {
		s.evictOldest()
	}

	s.hits = b.Hits
	s.misses = b.Misses
}

// Get returns the cached holders for key if the entry is fresh. An
// absent key counts as a miss. An entry older than the TTL is removed
// from both maps, persisted, and counted as a miss. The returned slice
// is shared; callers must not modify it.
func (s *Store) Get(key string) ([]Holding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.stored[key]
	if !ok {
		s.misses++
		s.dirty = true
		return nil, false
	}
	if time.Since(at) > s.cfg.TTL {
		delete(s.values, key)
		delete(s.stored, key)
		s.misses++
		s.dirty = true
		s.persist()
		return nil, false
	}

	s.hits++
	s.dirty = true
	return s.values[key], true
}

// Has reports whether key is cached and fresh, with the same lazy expiry
// and hit/miss accounting as Get.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores value for key with a fresh timestamp and persists. When key
// is new and the store is full, exactly one oldest entry is evicted
// first, so the capacity bound is never exceeded.
func (s *Store) Set(key string, value []Holding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stored[key]; !exists && len(s.stored) >= s.cfg.MaxEntries {
		s.evictOldest()
	}
	s.values[key] = value
	s.stored[key] = time.Now()
	s.dirty = true
	s.persist()
}

// evictOldest drops the entry with the smallest stored timestamp. Ties
// break on the lexicographically smallest key so eviction does not
// depend on map iteration order. No-op on an empty store.
// Caller must hold mu.
func (s *Store) evictOldest() {
	var (
		found  bool
		oldest string
		at     time.Time
	)
	for key, stored := range s.stored {
		switch {
		case !found:
			found, oldest, at = true, key, stored
		case stored.Before(at):
			oldest, at = key, stored
		case stored.Equal(at) && key < oldest:
			oldest = key
		}
	}
	if !found {
		return
	}
	delete(s.values, oldest)
	delete(s.stored, oldest)
}

// Remove deletes key from both maps and persists. It reports whether the
// key was present at all, expired entries included.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stored[key]; !ok {
		return false
	}
	delete(s.values, key)
	delete(s.stored, key)
	s.dirty = true
	s.persist()
	return true
}

// Clear empties the store, resets the hit/miss counters and removes the
// blob file.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string][]Holding)
	s.stored = make(map[string]time.Time)
	s.hits = 0
	s.misses = 0
	s.dirty = false

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove holders blob", "path", s.path, "err", err)
	}
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	Size       int
	MaxEntries int
	TTL        time.Duration
	Hits       int
	Misses     int
	HitRate    float64
}

// Stats reports size, bounds and lookup counters. HitRate is 0 when no
// lookups have happened yet.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Size:       len(s.stored),
		MaxEntries: s.cfg.MaxEntries,
		TTL:        s.cfg.TTL,
		Hits:       s.hits,
		Misses:     s.misses,
	}
	if total := s.hits + s.misses; total > 0 {
		st.HitRate = float64(s.hits) / float64(total)
	}
	return st
}

// Entry is a cached key together with its value and timestamp.
type Entry struct {
	Key      string
	Holdings []Holding
	StoredAt time.Time
}

// Entries returns every cached entry sorted by key, expired ones
// included. Listing does not count toward the hit/miss stats.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.stored))
	for key, at := range s.stored {
		entries = append(entries, Entry{Key: key, Holdings: s.values[key], StoredAt: at})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Keys returns every cached key in sorted order, expired ones included.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.stored))
	for key := range s.stored {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Flush persists pending counter-only changes; Get and Has mutate the
// counters without writing through. Failures are logged, never returned.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		s.persist()
	}
}

// Path returns the blob location backing this store.
func (s *Store) Path() string {
	return s.path
}

// Compact rewrites the blob from the in-memory state. Open already
// drops expired entries, orphaned halves and anything beyond capacity
// while loading, so opening a store and compacting it repairs a stale
// blob in place.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// persist writes both maps and the counters to the blob atomically.
// Failures are logged on the store's logger; only Compact surfaces the
// error, Set, Remove and Clear callers never see it. Caller must hold
// mu.
func (s *Store) persist() error {
	b := Blob{
		Values:   s.values,
		StoredAt: make(map[string]int64, len(s.stored)),
		Hits:     s.hits,
		Misses:   s.misses,
	}
	for key, at := range s.stored {
		b.StoredAt[key] = at.UnixMilli()
	}

	if err := storage.SaveJSON(s.path, b); err != nil {
		s.logger.Warn("failed to persist holders cache", "path", s.path, "err", err)
		return err
	}
	s.dirty = false
	return nil
}
