package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - shipping rule matching and cost evaluation service",
	Long: `Meridian matches storefront order line items against prioritized
shipping profiles and evaluates user-authored cost rules over them.

It provides:
  - Profile resolution with priority ordering and default fallback
  - A safe arithmetic/comparison interpreter for conditional rules
  - An HTTP API for profile management and bulk cost calculation
  - A background sweep that estimates costs for uncalculated orders
  - A SQLite-backed audit trail of every calculation`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
