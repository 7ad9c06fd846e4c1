package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
	"github.com/ocha-dataviz/ghotrack/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last recorded run",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	st, err := store.Open(store.Path())
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer st.Close()

	last, err := st.LastRun()
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Println("No runs recorded yet. Run `ghotrack update` first.")
		return nil
	}

	count, err := st.RunCount()
	if err != nil {
		return err
	}

	fmt.Println()
	if last.Status != "ok" {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Last Run",
			Headers: []string{"Field", "Value"},
			Rows: [][]string{
				{"At", last.Summary.At.Format("2006-01-02 15:04 UTC")},
				{"Status", "error"},
				{"Error", last.Error},
				{"Runs logged", strconv.Itoa(count)},
			},
		}))
		fmt.Println()
		return nil
	}

	s := last.Summary
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Last Run",
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"At", s.At.Format("2006-01-02 15:04 UTC")},
			{"Status", "ok"},
			{"Plans", fmt.Sprintf("%d (%d unmatched)", s.PlanCount, s.Unmatched)},
			{"Prioritized Requirements", cli.FormatUSDFull(float64(s.Totals.Requirement))},
			{"Funding received", cli.FormatUSDFull(s.Totals.Funding)},
			{"Coverage", cli.FormatPercent(s.Totals.CoveragePct)},
			{"Pledges", cli.FormatUSDFull(s.Totals.Pledges)},
			{"Duration", cli.FormatDuration(s.Duration.Milliseconds())},
			{"Runs logged", strconv.Itoa(count)},
		},
	}))
	fmt.Println()

	return nil
}
