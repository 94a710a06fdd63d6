package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage whohas configuration.

Config file: ~/.config/whohas/config.toml
Environment overrides: WHOHAS_API_URL, WHOHAS_TIMEOUT, WHOHAS_DIR`,
		Example: `  whohas config init   # Create default config
  whohas config show   # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Long: `Create the default config file with every option commented.

Refuses to overwrite an existing file unless --force is given.`,
		Example: `  whohas config init
  whohas config init -f   # Overwrite existing config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			path, err := config.Init(force)
			if err != nil {
				return err
			}

			out.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		Args:  cobra.NoArgs,
		Long: `Show the effective configuration after defaults, the config file
and environment overrides are applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			if jsonOutput {
				return out.JSON(cfg)
			}

			if path, err := config.Path(); err == nil {
				if _, statErr := os.Stat(path); statErr == nil {
					out.Printf("Config file: %s\n", path)
				} else {
					out.Printf("Config file: %s (not created, using defaults)\n", path)
				}
				out.Println()
			}

			out.Printf("api_url: %s\n", cfg.APIURL)
			out.Printf("request_timeout: %s\n", cfg.RequestTimeout.Duration)
			out.Printf("cache.ttl: %s\n", cfg.Cache.TTL.Duration)
			out.Printf("cache.max_entries: %d\n", cfg.Cache.MaxEntries)
			if cfg.Cache.Dir != "" {
				out.Printf("cache.dir: %s\n", cfg.Cache.Dir)
			}
			out.Printf("preload.batch_size: %d\n", cfg.Preload.BatchSize)
			out.Printf("preload.item_delay: %s\n", cfg.Preload.ItemDelay.Duration)
			out.Printf("preload.batch_delay: %s\n", cfg.Preload.BatchDelay.Duration)
			out.Printf("preload.failure_threshold: %d\n", cfg.Preload.FailureThreshold)
			out.Printf("preload.retries: %d\n", cfg.Preload.Retries)

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
