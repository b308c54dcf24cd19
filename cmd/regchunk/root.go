package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/regchunk/internal/config"
)

var (
	outputFormat string
	quiet        bool

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "regchunk",
	Short: "Structural chunker for regulatory documents",
	Long: `regchunk splits regulation text into section-aware chunks that carry
part, subpart, section, title, page range and citation metadata.

Settings come from the environment (and a .env file in the working
directory); command flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != string(formatYAML) && outputFormat != string(formatJSON) {
			return fmt.Errorf("unknown output format %q: use yaml or json", outputFormat)
		}
		level := slog.LevelInfo
		if quiet {
			level = slog.LevelWarn
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		cfg = config.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&quiet, "quiet", "q", false, "only log warnings and errors",
	)

	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
}
