package doctor

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Ruutuli/whohas/internal/api"
	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/history"
	"github.com/Ruutuli/whohas/internal/output"
	"github.com/Ruutuli/whohas/internal/preload"
	"github.com/Ruutuli/whohas/internal/storage"
	"github.com/Ruutuli/whohas/internal/watchlist"
)

func writeCacheBlob(t *testing.T, dir string, b cache.Blob) {
	t.Helper()
	if err := storage.SaveJSON(cache.BlobPath(dir), b); err != nil {
		t.Fatalf("write blob: %v", err)
	}
}

func runDoctor(t *testing.T, cfg *config.Config, client *api.Client, fix bool) string {
	t.Helper()
	var buf bytes.Buffer
	ctx := output.WithPrinter(context.Background(), &buf)
	if err := Run(ctx, cfg, client, fix); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return buf.String()
}

func TestCheckCache_MissingBlob(t *testing.T) {
	t.Parallel()

	issues, fresh := checkCache(t.TempDir(), cache.Config{}, time.Now())
	if len(issues) != 0 || fresh != 0 {
		t.Errorf("expected a clean cold start, got %d issues, %d fresh", len(issues), fresh)
	}
}

func TestCheckCache_CorruptBlob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(cache.BlobPath(dir), []byte("not json"), 0o600); err != nil {
		t.Fatalf("write blob: %v", err)
	}

	issues, fresh := checkCache(dir, cache.Config{}, time.Now())
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	if issues[0].FixAction != "delete_blob" {
		t.Errorf("expected delete_blob fix, got %q", issues[0].FixAction)
	}
	if fresh != 0 {
		t.Errorf("expected 0 fresh entries, got %d", fresh)
	}
}

func TestCheckCache_ExpiredAndHalves(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Now()
	writeCacheBlob(t, dir, cache.Blob{
		Values: map[string][]cache.Holding{
			"fresh-key":    {{Name: "Tingle", Quantity: 2}},
			"expired-key":  {{Name: "Ashei", Quantity: 1}},
			"orphan-value": {{Name: "Rusl", Quantity: 3}},
		},
		StoredAt: map[string]int64{
			"fresh-key":    now.UnixMilli(),
			"expired-key":  now.Add(-time.Hour).UnixMilli(),
			"orphan-stamp": now.UnixMilli(),
		},
	})

	issues, fresh := checkCache(dir, cache.Config{TTL: 10 * time.Minute}, now)

	if fresh != 1 {
		t.Errorf("expected 1 fresh entry, got %d", fresh)
	}
	want := map[string]string{
		"expired-key":  "prune",
		"orphan-stamp": "drop",
		"orphan-value": "drop",
	}
	if len(issues) != len(want) {
		t.Fatalf("expected %d issues, got %d: %v", len(want), len(issues), issues)
	}
	for _, issue := range issues {
		if action := want[issue.Key]; action != issue.FixAction {
			t.Errorf("issue %q: fix = %q, want %q", issue.Key, issue.FixAction, action)
		}
	}
}

func TestCheckCache_OverCapacity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Now()
	writeCacheBlob(t, dir, cache.Blob{
		Values: map[string][]cache.Holding{
			"key-a": {}, "key-b": {}, "key-c": {},
		},
		StoredAt: map[string]int64{
			"key-a": now.Add(-3 * time.Second).UnixMilli(),
			"key-b": now.Add(-2 * time.Second).UnixMilli(),
			"key-c": now.Add(-1 * time.Second).UnixMilli(),
		},
	})

	issues, fresh := checkCache(dir, cache.Config{TTL: time.Minute, MaxEntries: 2}, now)

	if fresh != 2 {
		t.Errorf("expected 2 kept entries, got %d", fresh)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	if issues[0].Key != "key-a" || issues[0].FixAction != "evict" {
		t.Errorf("expected the oldest key evicted, got %+v", issues[0])
	}
}

func TestCheckState_Clean(t *testing.T) {
	t.Parallel()

	if issues := checkState(t.TempDir()); len(issues) != 0 {
		t.Errorf("expected no issues in an empty dir, got %v", issues)
	}
}

func TestCheckState_TempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "watchlist.json.tmp"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	issues := checkState(dir)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	if issues[0].Key != "watchlist.json.tmp" || issues[0].FixAction != "remove_temp" {
		t.Errorf("unexpected issue %+v", issues[0])
	}
}

func TestCheckState_TrippedBreaker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st := preload.State{Disabled: true, TrippedAt: time.Now().Add(-time.Hour), Failures: 3}
	if err := preload.SaveState(dir, st); err != nil {
		t.Fatalf("save state: %v", err)
	}

	issues := checkState(dir)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	if issues[0].FixAction != "enable_manually" {
		t.Errorf("expected enable_manually, got %q", issues[0].FixAction)
	}
	if !strings.Contains(issues[0].Description, "tripped") {
		t.Errorf("expected the trip in %q", issues[0].Description)
	}
}

func TestCheckState_CorruptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	corrupt := map[string]string{
		preload.StatePath(dir): "reset_state",
		watchlist.Path(dir):    "inspect_manually",
		history.Path(dir):      "remove_history",
	}
	for path := range corrupt {
		if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	issues := checkState(dir)
	if len(issues) != len(corrupt) {
		t.Fatalf("expected %d issues, got %d: %v", len(corrupt), len(issues), issues)
	}
	got := make(map[string]bool)
	for _, issue := range issues {
		got[issue.FixAction] = true
	}
	for _, action := range corrupt {
		if !got[action] {
			t.Errorf("missing issue with fix %q in %v", action, issues)
		}
	}
}

func TestCheckAPI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	if issues := checkAPI(context.Background(), api.NewClient(srv.URL, time.Second)); len(issues) != 0 {
		t.Errorf("expected a reachable API, got %v", issues)
	}
	if issues := checkAPI(context.Background(), nil); issues != nil {
		t.Errorf("expected nil client to skip the check, got %v", issues)
	}
}

func TestCheckAPI_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	issues := checkAPI(context.Background(), api.NewClient(url, time.Second))
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Key != url {
		t.Errorf("expected the base URL as key, got %q", issues[0].Key)
	}
}

func TestRun_Healthy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()

	out := runDoctor(t, &cfg, api.NewClient(srv.URL, time.Second), false)

	if !strings.Contains(out, "✓ No issues found") {
		t.Errorf("expected a clean report, got:\n%s", out)
	}
	if !strings.Contains(out, "✓ API reachable") {
		t.Errorf("expected the API marked reachable, got:\n%s", out)
	}
}

func TestRun_ReportsWithoutFixing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCacheBlob(t, dir, cache.Blob{
		Values:   map[string][]cache.Holding{"stale-key": {}},
		StoredAt: map[string]int64{"stale-key": time.Now().Add(-time.Hour).UnixMilli()},
	})

	cfg := config.Default()
	cfg.Cache.Dir = dir

	out := runDoctor(t, &cfg, nil, false)

	if !strings.Contains(out, "Found 1 issues:") {
		t.Errorf("expected 1 issue reported, got:\n%s", out)
	}
	if !strings.Contains(out, "Run 'whohas doctor --fix' to repair.") {
		t.Errorf("expected the fix hint, got:\n%s", out)
	}

	// Report-only runs leave the blob untouched.
	b, err := cache.ReadBlob(dir)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if len(b.StoredAt) != 1 {
		t.Errorf("expected the stale entry still on disk, got %d entries", len(b.StoredAt))
	}
}

func TestRun_FixRepairs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Now()
	writeCacheBlob(t, dir, cache.Blob{
		Values: map[string][]cache.Holding{
			"fresh-key": {{Name: "Tingle", Quantity: 2}},
			"stale-key": {},
		},
		StoredAt: map[string]int64{
			"fresh-key": now.UnixMilli(),
			"stale-key": now.Add(-time.Hour).UnixMilli(),
		},
		Hits:   3,
		Misses: 1,
	})
	if err := os.WriteFile(filepath.Join(dir, "history.json.tmp"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	cfg := config.Default()
	cfg.Cache.Dir = dir

	out := runDoctor(t, &cfg, nil, true)

	if !strings.Contains(out, "Fixed 2 issues.") {
		t.Errorf("expected 2 fixes, got:\n%s", out)
	}

	b, err := cache.ReadBlob(dir)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if _, ok := b.StoredAt["stale-key"]; ok {
		t.Error("expected the expired entry compacted away")
	}
	if _, ok := b.StoredAt["fresh-key"]; !ok {
		t.Error("expected the fresh entry to survive")
	}
	if b.Hits != 3 || b.Misses != 1 {
		t.Errorf("expected counters preserved, got %d/%d", b.Hits, b.Misses)
	}
	if _, err := os.Stat(filepath.Join(dir, "history.json.tmp")); !os.IsNotExist(err) {
		t.Error("expected the temp file removed")
	}
}

func TestRun_FixRemovesCorruptBlob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(cache.BlobPath(dir), []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write blob: %v", err)
	}

	cfg := config.Default()
	cfg.Cache.Dir = dir

	out := runDoctor(t, &cfg, nil, true)

	if !strings.Contains(out, "holders blob unreadable") {
		t.Errorf("expected the summary to flag the blob, got:\n%s", out)
	}
	if !strings.Contains(out, "Removed unreadable holders blob") {
		t.Errorf("expected the blob removed, got:\n%s", out)
	}
	if _, err := os.Stat(cache.BlobPath(dir)); !os.IsNotExist(err) {
		t.Error("expected the blob gone after the fix")
	}
}

func TestRun_NeverReenablesPreload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st := preload.State{Disabled: true, TrippedAt: time.Now(), Failures: 3}
	if err := preload.SaveState(dir, st); err != nil {
		t.Fatalf("save state: %v", err)
	}

	cfg := config.Default()
	cfg.Cache.Dir = dir

	out := runDoctor(t, &cfg, nil, true)

	if !strings.Contains(out, "whohas preload enable") {
		t.Errorf("expected the manual enable hint, got:\n%s", out)
	}
	if got := preload.LoadState(dir); !got.Disabled {
		t.Error("expected the fix to leave preloading off")
	}
}
