package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/output"
)

// testConfig returns the default config pointed at a throwaway state
// directory with all preload pacing turned off.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()
	cfg.Preload.ItemDelay = config.Duration{}
	cfg.Preload.BatchDelay = config.Duration{}
	return &cfg
}

// testContext builds a context wired the way Execute wires it in
// production, with stdout captured in the returned buffer.
func testContext(t *testing.T, cfg *config.Config) (context.Context, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	ctx := context.Background()
	ctx = config.WithContext(ctx, cfg)
	ctx = output.WithPrinter(ctx, &buf)
	ctx = log.WithContext(ctx, log.New(io.Discard))
	return ctx, &buf
}

func executeCommand(ctx context.Context, cmd *cobra.Command, args ...string) error {
	if args == nil {
		// SetArgs(nil) would make cobra fall back to os.Args.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}

// holdersServer answers the holders endpoint from the given map,
// counting requests. Unknown keys get an empty holder list, which is
// what the dashboard returns for items nobody carries.
func holdersServer(t *testing.T, answers map[string][]cache.Holding) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/items/"), "/holders")
		holders := answers[key]
		if holders == nil {
			holders = []cache.Holding{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(holders)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// failingServer always answers 500.
func failingServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// seedStore plants entries in the cache behind cfg's state directory.
func seedStore(t *testing.T, cfg *config.Config, entries map[string][]cache.Holding) {
	t.Helper()

	dir, err := cfg.StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	store, release, err := cache.OpenLocked(dir, cacheConfig(cfg), nil)
	if err != nil {
		t.Fatalf("OpenLocked: %v", err)
	}
	defer release()
	for key, holders := range entries {
		store.Set(key, holders)
	}
}

// stateDir resolves cfg's state directory or fails the test.
func stateDir(t *testing.T, cfg *config.Config) string {
	t.Helper()

	dir, err := cfg.StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	return dir
}
