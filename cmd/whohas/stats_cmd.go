package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/output"
	"github.com/Ruutuli/whohas/internal/ui/static"
)

// StatsDisplay holds cache statistics for display
type StatsDisplay struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	TTL        string  `json:"ttl"`
	Hits       int     `json:"hits"`
	Misses     int     `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	BlobBytes  int64   `json:"blob_bytes"`
	BlobPath   string  `json:"blob_path"`
}

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "Show cache statistics",
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Show cache statistics.

Counts entries against capacity and reports the hit/miss counters the
store accumulates across invocations.`,
		Example: `  whohas stats
  whohas stats --json`,
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
			st := store.Stats()

			var blobBytes int64
			if fi, err := os.Stat(cache.BlobPath(dir)); err == nil {
				blobBytes = fi.Size()
			}

			if jsonOutput {
				return out.JSON(StatsDisplay{
					Entries:    st.Size,
					MaxEntries: st.MaxEntries,
					TTL:        st.TTL.String(),
					Hits:       st.Hits,
					Misses:     st.Misses,
					HitRate:    st.HitRate,
					BlobBytes:  blobBytes,
					BlobPath:   cache.BlobPath(dir),
				})
			}

			out.Print(static.RenderPairs([][2]string{
				{"Entries", fmt.Sprintf("%d / %d", st.Size, st.MaxEntries)},
				{"TTL", st.TTL.String()},
				{"Hits", strconv.Itoa(st.Hits)},
				{"Misses", strconv.Itoa(st.Misses)},
				{"Hit rate", fmt.Sprintf("%.0f%%", st.HitRate*100)},
				{"Blob", fmt.Sprintf("%s (%s)", humanize.IBytes(uint64(blobBytes)), cache.BlobPath(dir))},
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
