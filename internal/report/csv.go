// Package report serializes merge results to the two published CSV files.
//
// Column order is fixed: the downstream chart reads columns by position.
// Both files are staged as temp files in the output directory and renamed
// into place only after both wrote cleanly, so an interrupted run never
// leaves a truncated or half-updated pair behind.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/model"
)

// byPlanHeader is the published column order of the per-plan file.
var byPlanHeader = []string{
	"Plan", "Plan Type",
	"Prioritized Requirements (USD)", "Funding received (USD)",
	"Unfunded (USD)", "Coverage (%)",
	"Full Requirements (USD)",
	"People in Need", "People Targeted", "People Prioritized",
}

// ByPlanFilename returns the per-plan output filename for a year.
func ByPlanFilename(year int) string {
	return fmt.Sprintf("gho_%d_prioritized_by_plan.csv", year)
}

// TotalsFilename returns the totals output filename for a year.
func TotalsFilename(year int) string {
	return fmt.Sprintf("gho_%d_totals.csv", year)
}

// Write publishes both CSVs to outputDir, creating it if needed, and
// returns their final paths. Neither final file is touched unless both
// temp files were written successfully.
func Write(outputDir string, year int, rows []model.PlanCoverage, totals model.Totals, at time.Time) (string, string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output dir: %w", err)
	}

	byPlanPath := filepath.Join(outputDir, ByPlanFilename(year))
	totalsPath := filepath.Join(outputDir, TotalsFilename(year))

	byPlanTmp, err := writeTemp(byPlanPath, byPlanRecords(rows, totals))
	if err != nil {
		return "", "", err
	}

	totalsTmp, err := writeTemp(totalsPath, totalsRecords(totals, len(rows), at))
	if err != nil {
		_ = os.Remove(byPlanTmp)
		return "", "", err
	}

	if err := os.Rename(byPlanTmp, byPlanPath); err != nil {
		_ = os.Remove(byPlanTmp)
		_ = os.Remove(totalsTmp)
		return "", "", fmt.Errorf("replacing %s: %w", byPlanPath, err)
	}
	if err := os.Rename(totalsTmp, totalsPath); err != nil {
		_ = os.Remove(totalsTmp)
		return "", "", fmt.Errorf("replacing %s: %w", totalsPath, err)
	}

	return byPlanPath, totalsPath, nil
}

func byPlanRecords(rows []model.PlanCoverage, totals model.Totals) [][]string {
	records := make([][]string, 0, len(rows)+2)
	records = append(records, byPlanHeader)

	for _, r := range rows {
		records = append(records, []string{
			r.Name,
			r.PlanType,
			strconv.FormatInt(r.Requirement, 10),
			usd(r.Funding),
			usd(r.Unfunded),
			pct(r.CoveragePct),
			usd(r.FullRequirements),
			r.People.InNeed,
			r.People.Targeted,
			r.People.Prioritized,
		})
	}

	// Trailing aggregate row, requirement cells use the adjusted sum.
	records = append(records, []string{
		"Total",
		"",
		strconv.FormatInt(totals.Requirement, 10),
		usd(totals.Funding),
		usd(totals.Unfunded),
		pct(totals.CoveragePct),
		"", "", "", "",
	})

	return records
}

func totalsRecords(totals model.Totals, planCount int, at time.Time) [][]string {
	return [][]string{
		{"Metric", "Value"},
		{"Prioritized Requirements (USD)", strconv.FormatInt(totals.Requirement, 10)},
		{"Funding received (USD)", usd(totals.Funding)},
		{"Unfunded (USD)", usd(totals.Unfunded)},
		{"Coverage (%)", pct(totals.CoveragePct)},
		{"Pledges (USD)", usd(totals.Pledges)},
		{"Plans Count", strconv.Itoa(planCount)},
		{"Last Updated", at.UTC().Format("2006-01-02 15:04 UTC")},
	}
}

// writeTemp writes records to a temp file next to path and returns the
// temp filename. The file is synced before close so a rename never
// publishes unflushed data.
func writeTemp(path string, records [][]string) (string, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}

	return f.Name(), nil
}

// usd renders a dollar amount rounded to whole dollars.
func usd(v float64) string {
	return strconv.FormatInt(int64(math.Round(v)), 10)
}

// pct renders a one-decimal percentage.
func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
