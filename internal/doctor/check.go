package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Ruutuli/whohas/internal/api"
	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/history"
	"github.com/Ruutuli/whohas/internal/preload"
	"github.com/Ruutuli/whohas/internal/storage"
	"github.com/Ruutuli/whohas/internal/watchlist"
)

// checkCache inspects the raw holders blob for everything Open silently
// drops at load: expired entries, half entries present in only one of
// the two maps, and entries beyond max_entries. The second return value
// is the number of entries the next load keeps.
func checkCache(dir string, cfg cache.Config, now time.Time) ([]Issue, int) {
	if cfg.TTL <= 0 {
		cfg.TTL = cache.DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = cache.DefaultMaxEntries
	}

	b, err := cache.ReadBlob(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// Cold start, nothing to check.
			return nil, 0
		}
		return []Issue{{
			Key:         filepath.Base(cache.BlobPath(dir)),
			Description: fmt.Sprintf("holders blob does not parse: %v", err),
			FixAction:   "delete_blob",
		}}, 0
	}

	var issues []Issue
	fresh := make(map[string]time.Time, len(b.StoredAt))
	for key, ms := range b.StoredAt {
		if _, ok := b.Values[key]; !ok {
			issues = append(issues, Issue{
				Key:         key,
				Description: "timestamp without holder data",
				FixAction:   "drop",
			})
			continue
		}
		at := time.UnixMilli(ms)
		if now.Sub(at) > cfg.TTL {
			issues = append(issues, Issue{
				Key:         key,
				Description: fmt.Sprintf("expired %s", humanize.Time(at.Add(cfg.TTL))),
				FixAction:   "prune",
			})
			continue
		}
		fresh[key] = at
	}
	for key := range b.Values {
		if _, ok := b.StoredAt[key]; !ok {
			issues = append(issues, Issue{
				Key:         key,
				Description: "holder data without a timestamp",
				FixAction:   "drop",
			})
		}
	}

	// Entries past the capacity bound, oldest first, ties on the key.
	// Same order the store itself evicts in.
	if n := len(fresh) - cfg.MaxEntries; n > 0 {
		keys := make([]string, 0, len(fresh))
		for key := range fresh {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			ti, tj := fresh[keys[i]], fresh[keys[j]]
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return keys[i] < keys[j]
		})
		for _, key := range keys[:n] {
			issues = append(issues, Issue{
				Key:         key,
				Description: "beyond max_entries, evicted at the next load",
				FixAction:   "evict",
			})
		}
	}

	// Map iteration shuffles the order; sort so reports are stable.
	sort.Slice(issues, func(i, j int) bool { return issues[i].Key < issues[j].Key })

	kept := len(fresh)
	if kept > cfg.MaxEntries {
		kept = cfg.MaxEntries
	}
	return issues, kept
}

// checkState looks for damaged or leftover files next to the blob.
func checkState(dir string) []Issue {
	var issues []Issue

	// An interrupted atomic write leaves its temp file behind.
	if matches, err := filepath.Glob(filepath.Join(dir, "*"+storage.TmpSuffix)); err == nil {
		for _, path := range matches {
			issues = append(issues, Issue{
				Key:         filepath.Base(path),
				Description: "leftover from an interrupted write",
				FixAction:   "remove_temp",
			})
		}
	}

	var st preload.State
	switch err := storage.LoadJSON(preload.StatePath(dir), &st); {
	case err == nil && st.Disabled:
		desc := "preloading is switched off"
		if !st.TrippedAt.IsZero() {
			desc = fmt.Sprintf("preloading tripped %s and stays off", humanize.Time(st.TrippedAt))
		}
		issues = append(issues, Issue{
			Key:         filepath.Base(preload.StatePath(dir)),
			Description: desc,
			FixAction:   "enable_manually",
		})
	case err != nil && !os.IsNotExist(err):
		issues = append(issues, Issue{
			Key:         filepath.Base(preload.StatePath(dir)),
			Description: fmt.Sprintf("preload state does not parse: %v", err),
			FixAction:   "reset_state",
		})
	}

	if _, err := watchlist.Load(dir); err != nil {
		issues = append(issues, Issue{
			Key:         filepath.Base(watchlist.Path(dir)),
			Description: err.Error(),
			FixAction:   "inspect_manually",
		})
	}

	if _, err := history.Load(history.Path(dir)); err != nil {
		issues = append(issues, Issue{
			Key:         filepath.Base(history.Path(dir)),
			Description: err.Error(),
			FixAction:   "remove_history",
		})
	}

	return issues
}

// checkAPI verifies the dashboard API answers at all. A nil client
// skips the check.
func checkAPI(ctx context.Context, client *api.Client) []Issue {
	if client == nil {
		return nil
	}
	if err := client.Ping(ctx); err != nil {
		return []Issue{{
			Key:         client.BaseURL(),
			Description: fmt.Sprintf("not reachable: %v", err),
		}}
	}
	return nil
}
