package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
	"github.com/ocha-dataviz/ghotrack/internal/store"
)

var flagDryRun bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch live funding data and publish the coverage CSVs",
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Compute the merge but skip file writes and the run log")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	job := newJob(cfg, flagDryRun)

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "[%s] Fetching FTS data for %d...\n",
			time.Now().UTC().Format("2006-01-02 15:04 UTC"), cfg.General.Year)
	}

	result, runErr := job.Run(cmd.Context())

	// The run log never blocks the outcome: store errors are warnings.
	if !flagNoStore && !flagDryRun {
		if st, err := store.Open(store.Path()); err == nil {
			defer st.Close()
			if runErr != nil {
				err = st.RecordFailure(time.Now(), runErr)
			} else {
				err = st.RecordRun(result.Summary, result.Rows)
			}
			if err != nil && !flagQuiet {
				fmt.Fprintf(os.Stderr, "warning: run log not updated: %v\n", err)
			}
		} else if !flagQuiet {
			fmt.Fprintf(os.Stderr, "warning: run log unavailable: %v\n", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	if !flagQuiet {
		s := result.Summary
		fmt.Fprintf(os.Stderr, "  Plans:            %d (%d unmatched)\n", s.PlanCount, s.Unmatched)
		fmt.Fprintf(os.Stderr, "  Prioritized Reqs: %s\n", cli.FormatUSD(float64(s.Totals.Requirement)))
		fmt.Fprintf(os.Stderr, "  Funding:          %s\n", cli.FormatUSD(s.Totals.Funding))
		fmt.Fprintf(os.Stderr, "  Coverage:         %s\n", cli.FormatPercent(s.Totals.CoveragePct))
		if flagDryRun {
			fmt.Fprintf(os.Stderr, "  Dry run, nothing written.\n")
		} else {
			fmt.Fprintf(os.Stderr, "  Output:           %s\n", result.ByPlanPath)
			fmt.Fprintf(os.Stderr, "                    %s\n", result.TotalsPath)
		}
	}

	return nil
}
