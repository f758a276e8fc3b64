package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"NewsSentinel/internal/config"
	"NewsSentinel/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "bot",
		Short:        "NewsSentinel trades material news catalysts on a screened watchlist",
		SilenceUsage: true,
	}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "path to the YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
		return cfg, nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the trading loop (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, logging.NewLogger(cfg.Log))
		},
	}
	root.RunE = runCmd.RunE

	root.AddCommand(
		runCmd,
		&cobra.Command{
			Use:   "screen",
			Short: "Run the market screener once and print the watchlist",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return screen(cmd.Context(), cfg, logging.NewLogger(cfg.Log), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "NewsSentinel", version)
			},
		},
	)
	return root
}
