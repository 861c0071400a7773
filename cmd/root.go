// Package cmd defines and implements kimchi's CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kimchi-link/kimchi/internal/logging"
)

var cfgFile string

var rootLogger *zap.Logger

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kimchi",
		Short: "A fast, thorough link checker.",
		Long: `kimchi extracts links from Markdown, HTML, and plaintext documents -
local files, globs, stdin, or a fetched URL - canonicalizes them, applies an
include/exclude policy, and checks each one with bounded concurrency,
courtesy rate limiting, and format-aware retry semantics.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./kimchi.toml", "config file path")
	cmd.AddCommand(newCheckCmd())
	return cmd
}

// Execute is the CLI's entry point. It builds and runs the root command,
// exiting with the process code the run or a setup failure produced.
func Execute() {
	logger, err := logging.New(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kimchi: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	rootLogger = logger
	defer func() { _ = rootLogger.Sync() }()

	if err := newRootCmd().Execute(); err != nil {
		rootLogger.Error("run failed", zap.Error(err))
		os.Exit(exitCodeFor(err))
	}
}
