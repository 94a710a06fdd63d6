package main

import (
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/api"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Check state health and repair problems",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Check the whohas state directory for problems.

Finds expired and orphaned cache entries, leftover temp files, corrupt
state files and an unreachable API. With --fix, repairs everything
that is safe to repair; a tripped breaker and the watchlist are only
reported, never changed.`,
		Example: `  whohas doctor        # Report issues
  whohas doctor --fix  # Repair what can be repaired`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			client := api.NewClient(cfg.APIURL, cfg.RequestTimeout.Duration)
			return doctor.Run(ctx, cfg, client, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Repair issues where possible")

	return cmd
}
