package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/output"
	"github.com/Ruutuli/whohas/internal/resolve"
	"github.com/Ruutuli/whohas/internal/ui/prompt"
	"github.com/Ruutuli/whohas/internal/ui/static"
	"github.com/Ruutuli/whohas/internal/ui/styles"
	"github.com/Ruutuli/whohas/internal/watchlist"
)

// EntryDisplay holds one cached entry for display
type EntryDisplay struct {
	Key       string          `json:"key"`
	Holders   []cache.Holding `json:"holders"`
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Expired   bool            `json:"expired,omitempty"`
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect and manage the holders cache",
		GroupID: GroupCache,
		Long: `Inspect and manage the local holders cache.

Lookups are cached in a single JSON blob under the state directory
(~/.whohas by default) and expire after the configured TTL.`,
		Example: `  whohas cache show           # List cached entries
  whohas cache has blue-jelly # Exit 0 when cached and fresh
  whohas cache remove key     # Drop one entry
  whohas cache clear          # Drop everything
  whohas cache path           # Print the blob path`,
	}

	cmd.AddCommand(newCacheShowCmd())
	cmd.AddCommand(newCacheHasCmd())
	cmd.AddCommand(newCacheRemoveCmd())
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			store := cache.Open(dir, cacheConfig(cfg), l)
			entries := store.Entries()
			ttl := store.Stats().TTL

			if jsonOutput {
				display := make([]EntryDisplay, 0, len(entries))
				for _, e := range entries {
					holders := e.Holdings
					if holders == nil {
						holders = []cache.Holding{}
					}
					display = append(display, EntryDisplay{
						Key:       e.Key,
						Holders:   holders,
						StoredAt:  e.StoredAt,
						ExpiresAt: e.StoredAt.Add(ttl),
						Expired:   time.Since(e.StoredAt) > ttl,
					})
				}
				return out.JSON(display)
			}

			if len(entries) == 0 {
				out.Println("Cache is empty.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				expired := time.Since(e.StoredAt) > ttl
				rows = append(rows, []string{
					styles.FreshnessSymbol(expired),
					e.Key,
					strconv.Itoa(len(e.Holdings)),
					topHolder(e.Holdings),
					humanize.Time(e.StoredAt),
					humanize.Time(e.StoredAt.Add(ttl)),
				})
			}
			out.Print(static.RenderTable([]string{"", "KEY", "HOLDERS", "TOP HOLDER", "CACHED", "EXPIRES"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newCacheHasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "has <key>",
		Short: "Check whether a key is cached and fresh",
		Args:  cobra.ExactArgs(1),
		Long: `Check whether a key has a fresh cached answer.

Exits 0 when it does and 1 otherwise, so it works as a scripting
primitive. The check counts toward the hit/miss statistics like a
real lookup.`,
		Example:           `  whohas cache has blue-jelly && echo fresh`,
		ValidArgsFunction: completeCachedKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			store, release, err := cache.OpenLocked(dir, cacheConfig(cfg), l)
			if err != nil {
				return err
			}
			defer release()

			key := args[0]
			if store.Has(key) {
				l.Debug("fresh entry", "key", key)
				return nil
			}
			return notCachedError(store, dir, key)
		},
	}

	return cmd
}

func newCacheRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "remove <key>",
		Short:             "Drop one entry from the cache",
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeCachedKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			store, release, err := cache.OpenLocked(dir, cacheConfig(cfg), l)
			if err != nil {
				return err
			}
			defer release()

			key := args[0]
			if !store.Remove(key) {
				return notCachedError(store, dir, key)
			}

			out.Printf("Removed %q from the cache.\n", key)
			return nil
		},
	}

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached entry",
		Args:  cobra.NoArgs,
		Long: `Drop every cached entry.

Asks for confirmation on a terminal; pass --yes to skip the prompt.
Hit and miss counters survive a clear.`,
		Example: `  whohas cache clear
  whohas cache clear --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			store, release, err := cache.OpenLocked(dir, cacheConfig(cfg), l)
			if err != nil {
				return err
			}
			defer release()

			size := store.Stats().Size
			if size == 0 {
				out.Println("Cache is already empty.")
				return nil
			}

			if !yes {
				if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
					return fmt.Errorf("refusing to clear the cache non-interactively; pass --yes")
				}
				res, err := prompt.Confirm(fmt.Sprintf("Clear %d cached entries?", size))
				if err != nil {
					return err
				}
				if !res.Confirmed {
					out.Println("Aborted.")
					return nil
				}
			}

			store.Clear()
			out.Printf("Cleared %d entries.\n", size)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func newCachePathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the holders blob path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			out.Println(cache.BlobPath(dir))
			return nil
		},
	}

	return cmd
}

// notCachedError reports a missing key, suggesting close matches from
// the cache and the watchlist.
func notCachedError(store *cache.Store, dir, key string) error {
	known := store.Keys()
	if wl, err := watchlist.Load(dir); err == nil {
		known = resolve.Known(known, wl.Keys)
	}
	if suggestions := resolve.Suggest(key, known); len(suggestions) > 0 {
		return fmt.Errorf("nothing cached for %q (did you mean %s?)", key, strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("nothing cached for %q", key)
}

// topHolder renders the largest holding, relying on the API client
// having sorted holders by quantity.
func topHolder(holders []cache.Holding) string {
	if len(holders) == 0 {
		return "-"
	}
	return fmt.Sprintf("%s x%d", holders[0].Name, holders[0].Quantity)
}
