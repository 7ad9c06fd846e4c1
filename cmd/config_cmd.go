package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
	"github.com/ocha-dataviz/ghotrack/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [general]")
	fmt.Printf("    Year:             %d\n", cfg.General.Year)
	fmt.Printf("    Requirements CSV: %s\n", cfg.General.RequirementsCSV)
	fmt.Printf("    People CSV:       %s\n", cfg.General.PeopleCSV)
	fmt.Printf("    Output directory: %s\n", cfg.General.OutputDir)
	fmt.Println()

	fmt.Println("  [api]")
	fmt.Printf("    Overview URL: %s\n", cfg.OverviewURL())
	fmt.Printf("    Flow URL:     %s\n", cfg.FlowURL())
	fmt.Printf("    Timeout:      %ds\n", cfg.API.TimeoutSecs)
	fmt.Println()

	fmt.Println("  [daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %dh\n", cfg.Daemon.IntervalHours)
	fmt.Println()

	fmt.Println("  [totals]")
	if len(cfg.Totals.OverlapDeductions) == 0 {
		fmt.Println("    Overlap deductions: none")
	} else {
		fmt.Println("    Overlap deductions:")
		for _, name := range sortedKeys(cfg.Totals.OverlapDeductions) {
			fmt.Printf("      %s: %s\n", name, cli.FormatUSDFull(float64(cfg.Totals.OverlapDeductions[name])))
		}
	}
	fmt.Println()

	fmt.Println("  [matching]")
	if len(cfg.Matching.Aliases) == 0 {
		fmt.Println("    Aliases: none")
	} else {
		fmt.Println("    Aliases:")
		for _, name := range sortedKeys(cfg.Matching.Aliases) {
			fmt.Printf("      %s -> %s\n", name, cfg.Matching.Aliases[name])
		}
	}
	fmt.Println()

	fmt.Println("  Run `ghotrack setup` to reconfigure.")
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
