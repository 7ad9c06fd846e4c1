package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
)

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show aggregate coverage totals (fetches live data, writes nothing)",
	RunE:  runTotals,
}

func init() {
	rootCmd.AddCommand(totalsCmd)
}

func runTotals(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := newJob(cfg, true).Run(cmd.Context())
	if err != nil {
		return err
	}

	t := result.Summary.Totals

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("GHO %d Totals", cfg.General.Year),
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Prioritized Requirements", cli.FormatUSDFull(float64(t.Requirement))},
			{"Funding received", cli.FormatUSDFull(t.Funding)},
			{"Unfunded", cli.FormatUSDFull(t.Unfunded)},
			{"Coverage", cli.FormatPercent(t.CoveragePct)},
			{"Pledges", cli.FormatUSDFull(t.Pledges)},
			{"Plans", strconv.Itoa(result.Summary.PlanCount)},
		},
	}))
	fmt.Println()

	return nil
}
