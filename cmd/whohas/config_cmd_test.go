package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ruutuli/whohas/internal/config"
)

func TestConfigShow(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.APIURL = "http://dashboard.local:5001"

	ctx, buf := testContext(t, cfg)
	if err := executeCommand(ctx, newConfigCmd(), "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"api_url: http://dashboard.local:5001",
		"cache.ttl: 10m0s",
		"preload.batch_size: 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestConfigShow_JSON(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	ctx, buf := testContext(t, cfg)
	if err := executeCommand(ctx, newConfigCmd(), "show", "--json"); err != nil {
		t.Fatalf("config show --json: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if got["api_url"] != config.DefaultAPIURL {
		t.Errorf("api_url = %v", got["api_url"])
	}
	if _, ok := got["preload"].(map[string]any); !ok {
		t.Errorf("preload section missing: %v", got)
	}
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := testConfig(t)
	ctx, buf := testContext(t, cfg)

	if err := executeCommand(ctx, newConfigCmd(), "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}

	path := filepath.Join(home, ".config", "whohas", "config.toml")
	if !strings.Contains(buf.String(), path) {
		t.Errorf("output = %q, want the created path", buf.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	// A second init without --force must not clobber the file.
	ctx2, _ := testContext(t, cfg)
	if err := executeCommand(ctx2, newConfigCmd(), "init"); err == nil {
		t.Fatal("second init succeeded without --force")
	}

	ctx3, _ := testContext(t, cfg)
	if err := executeCommand(ctx3, newConfigCmd(), "init", "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
}
