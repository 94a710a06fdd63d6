package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/output"
	"github.com/Ruutuli/whohas/internal/resolve"
	"github.com/Ruutuli/whohas/internal/ui/static"
	"github.com/Ruutuli/whohas/internal/ui/styles"
	"github.com/Ruutuli/whohas/internal/watchlist"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Manage the preload watchlist",
		GroupID: GroupPreload,
		Long: `Manage the preload watchlist.

The watchlist is the default key source for 'whohas preload run'.
Keys keep the order they were added in, and preloading fetches them
in that order.`,
		Example: `  whohas watch add blue-jelly
  whohas watch list
  whohas watch remove blue-jelly`,
	}

	cmd.AddCommand(newWatchAddCmd())
	cmd.AddCommand(newWatchRemoveCmd())
	cmd.AddCommand(newWatchListCmd())

	return cmd
}

func newWatchAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <key>...",
		Short: "Add keys to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			wl, err := watchlist.Load(dir)
			if err != nil {
				return err
			}

			for _, key := range args {
				if err := wl.Add(key); err != nil {
					return err
				}
			}
			if err := wl.Save(); err != nil {
				return err
			}

			if len(args) == 1 {
				out.Printf("Watching %q.\n", args[0])
			} else {
				out.Printf("Watching %d new keys.\n", len(args))
			}
			return nil
		},
	}

	return cmd
}

func newWatchRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "remove <key>",
		Short:             "Remove a key from the watchlist",
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeWatchedKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			wl, err := watchlist.Load(dir)
			if err != nil {
				return err
			}

			key := args[0]
			if err := wl.Remove(key); err != nil {
				if suggestions := resolve.Suggest(key, wl.Keys); len(suggestions) > 0 {
					return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggestions, ", "))
				}
				return err
			}
			if err := wl.Save(); err != nil {
				return err
			}

			out.Printf("Stopped watching %q.\n", key)
			return nil
		},
	}

	return cmd
}

func newWatchListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List watched keys",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			wl, err := watchlist.Load(dir)
			if err != nil {
				return err
			}

			if jsonOutput {
				return out.JSON(wl.Keys)
			}

			if len(wl.Keys) == 0 {
				out.Println("Watchlist is empty. Add keys with 'whohas watch add <key>'.")
				return nil
			}

			store := cache.Open(dir, cacheConfig(cfg), l)
			ttl := store.Stats().TTL
			stored := make(map[string]time.Time)
			for _, e := range store.Entries() {
				stored[e.Key] = e.StoredAt
			}

			rows := make([][]string, 0, len(wl.Keys))
			for _, key := range wl.Keys {
				cached := "-"
				if at, ok := stored[key]; ok {
					expired := time.Since(at) > ttl
					cached = fmt.Sprintf("%s %s", styles.FreshnessSymbol(expired), humanize.Time(at))
				}
				rows = append(rows, []string{key, cached})
			}
			out.Print(static.RenderTable([]string{"KEY", "CACHED"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
