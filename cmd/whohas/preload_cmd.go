package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/api"
	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/output"
	"github.com/Ruutuli/whohas/internal/preload"
	"github.com/Ruutuli/whohas/internal/ui/progress"
	"github.com/Ruutuli/whohas/internal/ui/styles"
	"github.com/Ruutuli/whohas/internal/watchlist"
)

// BreakerDisplay holds the breaker state for display
type BreakerDisplay struct {
	Enabled   bool      `json:"enabled"`
	Failures  int       `json:"failures"`
	Threshold int       `json:"threshold"`
	TrippedAt time.Time `json:"tripped_at,omitzero"`
}

func newPreloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preload",
		Short:   "Warm the cache ahead of lookups",
		GroupID: GroupPreload,
		Long: `Warm the cache ahead of lookups.

Preloading fetches keys slowly, in order, pausing between items and
batches so the bot's API never sees a burst. A breaker disables
preloading after repeated failures and stays off until re-enabled.`,
		Example: `  whohas preload run       # Preload the watchlist
  whohas preload status    # Show the breaker
  whohas preload enable    # Re-arm after a trip`,
	}

	cmd.AddCommand(newPreloadRunCmd())
	cmd.AddCommand(newPreloadEnableCmd())
	cmd.AddCommand(newPreloadDisableCmd())
	cmd.AddCommand(newPreloadStatusCmd())

	return cmd
}

func newPreloadRunCmd() *cobra.Command {
	var (
		force    bool
		fromFile string
	)

	cmd := &cobra.Command{
		Use:   "run [keys...]",
		Short: "Fetch a batch of keys into the cache",
		Long: `Fetch a batch of keys into the cache.

Keys come from the arguments, from --file (one key per line, # starts
a comment), or from the watchlist when neither is given. Candidate
order is preserved; keys that are already fresh are skipped without
touching the API.

Fetch failures never fail the run. They count against the breaker,
which trips after the configured number of consecutive failures and
refuses future runs until 'whohas preload enable'.`,
		Example: `  whohas preload run                        # Preload the watchlist
  whohas preload run blue-jelly eldin-ore   # Preload specific keys
  whohas preload run --file keys.txt        # Keys from a file
  whohas preload run --force                # Ignore a tripped breaker`,
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

			keys, err := preloadKeys(args, fromFile, dir)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return fmt.Errorf("%w; give keys, --file or add some with 'whohas watch add'", preload.ErrNoKeys)
			}

			store, release, err := cache.OpenLocked(dir, cacheConfig(cfg), l)
			if err != nil {
				return err
			}
			defer release()

			breaker := preload.BreakerFromState(preload.LoadState(dir), cfg.Preload.FailureThreshold)
			if force {
				l.Debug("forcing the breaker closed")
				breaker.Enable()
			}

			bar := progress.NewProgressBar(len(keys), "Preloading...")
			bar.Start()

			sched := &preload.Scheduler{
				Store:      store,
				Fetch:      api.NewClient(cfg.APIURL, cfg.RequestTimeout.Duration),
				Breaker:    breaker,
				BatchSize:  cfg.Preload.BatchSize,
				ItemDelay:  cfg.Preload.ItemDelay.Duration,
				BatchDelay: cfg.Preload.BatchDelay.Duration,
				Retries:    cfg.Preload.Retries,
				Logger:     l,
				Progress: func(done, total int, key string) {
					bar.SetProgress(done, key)
				},
			}

			summary, runErr := sched.Run(ctx, keys)
			bar.Stop()

			// The breaker may have tripped mid-run; persist before
			// reporting anything.
			if err := preload.SaveState(dir, breaker.State()); err != nil {
				l.Warn("failed to persist preload state", "err", err)
			}
			if runErr != nil {
				return runErr
			}

			if summary.Refused {
				out.Println("Preloading is disabled; nothing was fetched.")
				out.Println("Run 'whohas preload enable' or pass --force.")
				return nil
			}

			out.Printf("Preloaded %d of %d keys (%d fresh, %d failed).\n",
				summary.Succeeded, len(keys), summary.Skipped, summary.Failed)
			if summary.Tripped {
				out.Println(styles.StatusWarning("Breaker tripped; preloading is now disabled. Run 'whohas preload enable' to re-arm it."))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Run even when the breaker is open")
	cmd.Flags().StringVar(&fromFile, "file", "", "Read keys from a file (one per line)")

	return cmd
}

func newPreloadEnableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Re-enable preloading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			st := preload.LoadState(dir)
			if !st.Disabled {
				out.Println("Preloading is already enabled.")
				return nil
			}

			// Enabling also forgets the failure streak.
			breaker := preload.BreakerFromState(st, cfg.Preload.FailureThreshold)
			breaker.Enable()
			if err := preload.SaveState(dir, breaker.State()); err != nil {
				return fmt.Errorf("failed to save preload state: %w", err)
			}
			out.Println("Preloading enabled.")
			return nil
		},
	}

	return cmd
}

func newPreloadDisableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Switch preloading off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			st := preload.LoadState(dir)
			if st.Disabled {
				out.Println("Preloading is already disabled.")
				return nil
			}

			// A manual disable carries no trip time, which is how
			// status and doctor tell it apart from a tripped breaker.
			breaker := preload.BreakerFromState(st, cfg.Preload.FailureThreshold)
			breaker.Disable()
			if err := preload.SaveState(dir, breaker.State()); err != nil {
				return fmt.Errorf("failed to save preload state: %w", err)
			}
			out.Println("Preloading disabled.")
			return nil
		},
	}

	return cmd
}

func newPreloadStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the breaker state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			dir, err := cfg.StateDir()
			if err != nil {
				return fmt.Errorf("failed to resolve state directory: %w", err)
			}

			st := preload.LoadState(dir)
			status := preload.BreakerFromState(st, cfg.Preload.FailureThreshold).Status()

			if jsonOutput {
				return out.JSON(BreakerDisplay{
					Enabled:   !status.Disabled,
					Failures:  status.Failures,
					Threshold: status.Threshold,
					TrippedAt: status.TrippedAt,
				})
			}

			switch {
			case status.Disabled && !status.TrippedAt.IsZero():
				out.Println(styles.StatusWarning(fmt.Sprintf("Preloading is disabled (tripped %s)", humanize.Time(status.TrippedAt))))
			case status.Disabled:
				out.Println(styles.StatusWarning("Preloading is disabled"))
			default:
				out.Println(styles.StatusOK("Preloading is enabled"))
			}
			if status.Failures > 0 {
				out.Printf("Consecutive failures: %d of %d\n", status.Failures, status.Threshold)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// preloadKeys picks the candidate list: arguments, --file, or the
// watchlist, in that order of preference.
func preloadKeys(args []string, fromFile, dir string) ([]string, error) {
	switch {
	case len(args) > 0 && fromFile != "":
		return nil, fmt.Errorf("give keys as arguments or via --file, not both")
	case len(args) > 0:
		return args, nil
	case fromFile != "":
		return readKeyFile(fromFile)
	default:
		wl, err := watchlist.Load(dir)
		if err != nil {
			return nil, err
		}
		return wl.Keys, nil
	}
}

func readKeyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	defer f.Close()

	var keys []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return keys, nil
}
