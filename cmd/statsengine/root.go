package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/basestats/stats-engine/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "statsengine",
	Short: "Amateur baseball statistics engine",
	Long: "Aggregates submitted game records into per-period snapshots, team roll-ups,\n" +
		"advanced stats and leaderboards.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides "+config.ConfigFileEnv+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(rollupCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.ConfigFileEnv, configPath); err != nil {
			return nil, err
		}
	}
	return config.Load()
}
