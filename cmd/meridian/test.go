package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"parcelhq/meridian/pkg/shipping/engine"
	"parcelhq/meridian/pkg/shipping/source"
)

var testFlags struct {
	profileFile string
	dataFile    string
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Dry-run shipping profiles against sample data",
	Long: `Evaluate shipping profiles from a YAML file against sample record
data without touching any store.

The data file is a flat YAML mapping of field values and numeric
context variables, for example:

  product_title: 2 Plug Adapter
  quantity: 2
  order_subtotal: 150

Examples:
  meridian test --profile profiles.yaml --data order.yaml`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVarP(&testFlags.profileFile, "profile", "p", "", "profile YAML file (required)")
	testCmd.Flags().StringVarP(&testFlags.dataFile, "data", "d", "", "sample data YAML file (required)")
	testCmd.MarkFlagRequired("profile")
	testCmd.MarkFlagRequired("data")
}

func runTest(cmd *cobra.Command, args []string) error {
	profiles, err := source.LoadFile(testFlags.profileFile)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles in %q", testFlags.profileFile)
	}

	raw, err := os.ReadFile(testFlags.dataFile)
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}
	var testData map[string]interface{}
	if err := yaml.Unmarshal(raw, &testData); err != nil {
		return fmt.Errorf("parse data file %q: %w", testFlags.dataFile, err)
	}

	eng := engine.New(nil)
	for _, profile := range profiles {
		matched, cost := eng.DryRun(profile, testData)
		if matched {
			fmt.Printf("%-30s matched  cost=%.2f\n", profile.Name, cost)
		} else {
			fmt.Printf("%-30s no match\n", profile.Name)
		}
	}

	return nil
}
