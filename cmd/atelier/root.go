package main

import (
	"fmt"
	"os"

	"mercator-hq/atelier/pkg/cli"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Atelier - generative image proxy",
	Long: `Atelier is a small HTTP proxy between a browser client and a
generative-image API.

It provides:
  - Image editing and text-to-image generation behind one endpoint
  - Per-client fixed window rate limiting, in memory or in Redis
  - Server-side custody of the upstream API key
  - Structured logs, Prometheus metrics and OpenTelemetry traces`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
