package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	yearStr := strconv.Itoa(cfg.General.Year)
	reqPath := cfg.General.RequirementsCSV
	peoplePath := cfg.General.PeopleCSV
	outputDir := cfg.General.OutputDir
	intervalHours := cfg.Daemon.IntervalHours

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Campaign year").
				Description("The GHO year to fetch funding data for.").
				Value(&yearStr).
				Validate(func(s string) error {
					y, err := strconv.Atoi(s)
					if err != nil || y < 2000 || y > 2100 {
						return errors.New("enter a four-digit year")
					}
					return nil
				}),
			huh.NewInput().
				Title("Prioritized requirements CSV").
				Description("Static spreadsheet with plan and prioritized_requirements columns.").
				Value(&reqPath).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("path is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("People figures CSV (optional)").
				Description("Leave as-is or blank; people columns show as empty when missing.").
				Value(&peoplePath),
			huh.NewInput().
				Title("Output directory").
				Description("Where the published coverage CSVs are written.").
				Value(&outputDir).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("directory is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Daemon update interval").
				Description("How often `ghotrack daemon` refreshes the data.").
				Options(
					huh.NewOption("Every 6 hours", 6),
					huh.NewOption("Every 12 hours", 12),
					huh.NewOption("Daily", 24),
				).
				Value(&intervalHours),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return err
	}

	cfg.General.Year, _ = strconv.Atoi(yearStr)
	cfg.General.RequirementsCSV = reqPath
	cfg.General.PeopleCSV = peoplePath
	cfg.General.OutputDir = outputDir
	cfg.Daemon.IntervalHours = intervalHours

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `ghotrack setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
