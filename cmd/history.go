package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
	"github.com/ocha-dataviz/ghotrack/internal/store"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the run log",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Maximum runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	st, err := store.Open(store.Path())
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer st.Close()

	runs, err := st.RecentRuns(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run `ghotrack update` first.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		if r.Status != "ok" {
			rows = append(rows, []string{
				r.Summary.At.Format("2006-01-02 15:04"),
				"error",
				"-", "-", "-",
				r.Error,
			})
			continue
		}
		rows = append(rows, []string{
			r.Summary.At.Format("2006-01-02 15:04"),
			"ok",
			strconv.Itoa(r.Summary.PlanCount),
			cli.FormatUSD(r.Summary.Totals.Funding),
			cli.FormatPercent(r.Summary.Totals.CoveragePct),
			"",
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Run History",
		Headers: []string{"When (UTC)", "Status", "Plans", "Funding", "Coverage", "Error"},
		Rows:    rows,
	}))
	fmt.Println()

	return nil
}
