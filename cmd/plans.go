package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show per-plan coverage (fetches live data, writes nothing)",
	RunE:  runPlans,
}

func init() {
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := newJob(cfg, true).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("GHO %d PRIORITIZED COVERAGE", cfg.General.Year)))
	fmt.Println()

	rows := make([][]string, 0, len(result.Rows)+2)
	for _, r := range result.Rows {
		funded := cli.FormatUSDFull(r.Funding)
		if !r.Matched {
			funded = funded + " *"
		}
		rows = append(rows, []string{
			r.Name,
			r.PlanType,
			cli.FormatUSDFull(float64(r.Requirement)),
			funded,
			cli.FormatPercent(r.CoveragePct),
			cli.RenderCoverageBar(r.CoveragePct, 16),
		})
	}
	rows = append(rows, []string{"---"})
	t := result.Summary.Totals
	rows = append(rows, []string{
		"TOTAL",
		"",
		cli.FormatUSDFull(float64(t.Requirement)),
		cli.FormatUSDFull(t.Funding),
		cli.FormatPercent(t.CoveragePct),
		cli.RenderCoverageBar(t.CoveragePct, 16),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Plan", "Type", "Prioritized", "Funded", "Coverage", ""},
		Rows:    rows,
	}))

	if result.Summary.Unmatched > 0 {
		fmt.Printf("  * no FTS match, reported as zero funding (%d plans)\n", result.Summary.Unmatched)
	}
	fmt.Println()

	return nil
}
