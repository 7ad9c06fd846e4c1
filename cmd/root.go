// Package cmd wires the ghotrack command-line interface.
package cmd

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/config"
	"github.com/ocha-dataviz/ghotrack/internal/fts"
	"github.com/ocha-dataviz/ghotrack/internal/pipeline"
)

var (
	flagRequirements string
	flagPeople       string
	flagOutputDir    string
	flagYear         int
	flagQuiet        bool
	flagNoStore      bool
)

var rootCmd = &cobra.Command{
	Use:   "ghotrack",
	Short: "GHO prioritized funding tracker",
	Long:  "Merge static prioritized requirements with live FTS funding data and publish coverage CSVs.",
	RunE:  runUpdate,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRequirements, "requirements", "r", "", "Path to prioritized requirements CSV")
	rootCmd.PersistentFlags().StringVar(&flagPeople, "people", "", "Path to people figures CSV")
	rootCmd.PersistentFlags().StringVarP(&flagOutputDir, "output-dir", "o", "", "Output directory for published CSVs")
	rootCmd.PersistentFlags().IntVarP(&flagYear, "year", "y", 0, "Campaign year (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress warnings and progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "Skip the run-history log")
}

// loadConfig loads the config file and applies env and flag overrides.
// Precedence: flags, then GHOTRACK_* env vars, then the file, then defaults.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	if env := os.Getenv("GHOTRACK_REQUIREMENTS"); env != "" {
		cfg.General.RequirementsCSV = env
	}
	if env := os.Getenv("GHOTRACK_OUTPUT_DIR"); env != "" {
		cfg.General.OutputDir = env
	}

	if flagRequirements != "" {
		cfg.General.RequirementsCSV = flagRequirements
	}
	if flagPeople != "" {
		cfg.General.PeopleCSV = flagPeople
	}
	if flagOutputDir != "" {
		cfg.General.OutputDir = flagOutputDir
	}
	if flagYear > 0 {
		cfg.General.Year = flagYear
	}

	return cfg, nil
}

// newJob builds the merge job from the effective configuration.
func newJob(cfg config.Config, dryRun bool) *pipeline.Job {
	var warnings io.Writer
	if !flagQuiet {
		warnings = os.Stderr
	}

	return &pipeline.Job{
		RequirementsPath: cfg.General.RequirementsCSV,
		PeoplePath:       cfg.General.PeopleCSV,
		OutputDir:        cfg.General.OutputDir,
		Year:             cfg.General.Year,
		OverviewURL:      cfg.OverviewURL(),
		FlowURL:          cfg.FlowURL(),
		Aliases:          cfg.Matching.Aliases,
		Deductions:       cfg.Totals.OverlapDeductions,
		Fetcher:          fts.NewClient(time.Duration(cfg.API.TimeoutSecs) * time.Second),
		Warnings:         warnings,
		DryRun:           dryRun,
	}
}
