package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"torch-hq/torch/pkg/cli"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "torch",
	Short: "Torch - push-receiving Prometheus aggregator",
	Long: `Torch accepts metric observations pushed over HTTP by short-lived
processes and exposes the aggregated state for Prometheus to scrape.

Series untouched for longer than the TTL (TORCH_TTL, default 24h) are
evicted. Torch can register itself with a local Consul agent so Prometheus
finds it through service discovery.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and environment only when empty)")
}
