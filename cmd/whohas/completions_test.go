package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/cache"
)

func completionCmd(t *testing.T) *cobra.Command {
	t.Helper()

	cfg := testConfig(t)
	seedStore(t, cfg, map[string][]cache.Holding{
		"blue-jelly": {{Name: "Tetra", Quantity: 3}},
		"eldin-ore":  {{Name: "Daruk", Quantity: 7}},
	})
	seedWatchlist(t, cfg, "korok-seed", "blue-jelly")

	ctx, _ := testContext(t, cfg)
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	return cmd
}

func TestCompleteKeys(t *testing.T) {
	t.Parallel()

	cmd := completionCmd(t)

	// Union of cached and watched keys, deduplicated.
	matches, directive := completeKeys(cmd, nil, "")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	if len(matches) != 3 {
		t.Errorf("matches = %v, want 3 unique keys", matches)
	}

	matches, _ = completeKeys(cmd, nil, "blue")
	if len(matches) != 1 || matches[0] != "blue-jelly" {
		t.Errorf("matches = %v, want [blue-jelly]", matches)
	}

	// Single-key commands offer nothing once the key is given.
	matches, _ = completeKeys(cmd, []string{"blue-jelly"}, "")
	if matches != nil {
		t.Errorf("matches = %v, want nil", matches)
	}
}

func TestCompleteCachedKeys(t *testing.T) {
	t.Parallel()

	cmd := completionCmd(t)

	matches, _ := completeCachedKeys(cmd, nil, "")
	if len(matches) != 2 {
		t.Errorf("matches = %v, want the 2 cached keys", matches)
	}

	matches, _ = completeCachedKeys(cmd, nil, "korok")
	if len(matches) != 0 {
		t.Errorf("matches = %v, watched-only keys must not appear", matches)
	}
}

func TestCompleteWatchedKeys(t *testing.T) {
	t.Parallel()

	cmd := completionCmd(t)

	matches, _ := completeWatchedKeys(cmd, nil, "")
	if len(matches) != 2 {
		t.Errorf("matches = %v, want the 2 watched keys", matches)
	}

	matches, _ = completeWatchedKeys(cmd, nil, "eldin")
	if len(matches) != 0 {
		t.Errorf("matches = %v, cache-only keys must not appear", matches)
	}
}
