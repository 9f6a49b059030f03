package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"profitmaker/internal/config"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "profitmaker",
		Short: "Albion Online market profit dashboard",
		Long: `profitmaker fetches market prices from the Albion Online Data API,
finds cross-city flip opportunities and profitable crafts, and serves a
dashboard with live refresh.

Examples:
  profitmaker serve
  profitmaker flips --min-profit 500
  profitmaker craft T4_METALBAR
  profitmaker search "scholar"
  profitmaker snapshot export backup.json`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newFlipsCommand())
	rootCmd.AddCommand(newCraftCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newSnapshotCommand())

	return rootCmd
}

// newLogger builds the JSON logger every component receives.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}
