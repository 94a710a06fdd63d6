package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/api"
	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/history"
	"github.com/Ruutuli/whohas/internal/output"
	"github.com/Ruutuli/whohas/internal/ui/progress"
	"github.com/Ruutuli/whohas/internal/ui/static"
	"github.com/Ruutuli/whohas/internal/ui/styles"
)

// LookupDisplay holds one answered lookup for display
type LookupDisplay struct {
	Key       string          `json:"key"`
	Holders   []cache.Holding `json:"holders"`
	FromCache bool            `json:"from_cache"`
	StoredAt  time.Time       `json:"stored_at,omitzero"`
}

func newLookupCmd() *cobra.Command {
	var (
		jsonOutput      bool
		copyToClipboard bool
	)

	cmd := &cobra.Command{
		Use:     "lookup [key]",
		Short:   "Look up who holds an item",
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `Look up which characters hold an item.

Fresh cached answers are served locally; everything else is fetched
from the dashboard API and cached. Without a key the most recent
lookup is repeated.`,
		Example: `  whohas lookup blue-jelly          # Look up an item
  whohas lookup                     # Repeat the last lookup
  whohas lookup eldin-ore --json    # Machine-readable output
  whohas lookup korok-seed --copy   # Copy the answer to the clipboard`,
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				key, err = history.MostRecent(history.Path(dir))
				if err != nil {
					return fmt.Errorf("failed to read lookup history: %w", err)
				}
				if key == "" {
					return fmt.Errorf("no lookup history yet; give an item key")
				}
				l.Debug("repeating last lookup", "key", key)
			}

			store, release, err := cache.OpenLocked(dir, cacheConfig(cfg), l)
			if err != nil {
				return err
			}
			defer release()

			result := LookupDisplay{Key: key}
			holders, ok := store.Get(key)
			if ok {
				result.Holders = holders
				result.FromCache = true
				result.StoredAt = storedAt(store, key)
				l.Debug("cache hit", "key", key, "holders", len(holders))
			} else {
				l.Debug("cache miss", "key", key)

				sp := progress.NewSpinner(fmt.Sprintf("Looking up %s...", key))
				sp.Start()
				client := api.NewClient(cfg.APIURL, cfg.RequestTimeout.Duration)
				holders, err = client.ItemHolders(ctx, key)
				sp.Stop()
				if err != nil {
					return fmt.Errorf("lookup %q: %w", key, err)
				}

				store.Set(key, holders)
				result.Holders = holders
			}

			if err := history.Record(key, history.Path(dir)); err != nil {
				l.Warn("failed to record lookup history", "err", err)
			}

			if result.Holders == nil {
				result.Holders = []cache.Holding{}
			}

			if copyToClipboard {
				if err := clipboard.WriteAll(clipboardText(key, result.Holders)); err != nil {
					l.Warn("failed to copy to clipboard", "err", err)
				}
			}

			if jsonOutput {
				return out.JSON(result)
			}

			printHolders(out, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&copyToClipboard, "copy", false, "Copy the answer to the clipboard")

	return cmd
}

func printHolders(out *output.Printer, result LookupDisplay) {
	if len(result.Holders) == 0 {
		out.Printf("No one holds %q right now.\n", result.Key)
		return
	}

	rows := make([][]string, 0, len(result.Holders))
	for _, h := range result.Holders {
		rows = append(rows, []string{h.Name, strconv.Itoa(h.Quantity)})
	}
	out.Print(static.RenderTable([]string{"HOLDER", "QUANTITY"}, rows))

	if result.FromCache && !result.StoredAt.IsZero() {
		out.Println(styles.MutedStyle.Render(fmt.Sprintf("cached %s", humanize.Time(result.StoredAt))))
	}
}

// storedAt finds the timestamp for key. The store keeps entries sorted
// and small, so a scan is fine.
func storedAt(store *cache.Store, key string) time.Time {
	for _, e := range store.Entries() {
		if e.Key == key {
			return e.StoredAt
		}
	}
	return time.Time{}
}

// clipboardText is the one-line rendering used for --copy, the shape
// you would paste into a Discord channel.
func clipboardText(key string, holders []cache.Holding) string {
	if len(holders) == 0 {
		return fmt.Sprintf("no one holds %s", key)
	}

	parts := make([]string, 0, len(holders))
	for _, h := range holders {
		parts = append(parts, fmt.Sprintf("%s x%d", h.Name, h.Quantity))
	}
	return fmt.Sprintf("%s: %s", key, strings.Join(parts, ", "))
}
