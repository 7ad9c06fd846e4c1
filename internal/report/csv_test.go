package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/model"
)

var testAt = time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

func sampleRows() []model.PlanCoverage {
	return []model.PlanCoverage{
		{
			Name: "B", PlanType: "HRP", Requirement: 200,
			Funding: 0, Unfunded: 200, CoveragePct: 0,
		},
		{
			Name: "A", PlanType: "RRP", Requirement: 100,
			Funding: 50, Unfunded: 50, CoveragePct: 50,
			FullRequirements: 400,
			People:           model.PeopleFigures{InNeed: "1000", Targeted: "800", Prioritized: "500"},
		},
	}
}

func sampleTotals() model.Totals {
	return model.Totals{
		Requirement: 300, Funding: 50, Unfunded: 250,
		CoveragePct: 16.7, Pledges: 1_000,
	}
}

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestWrite_ByPlanContents(t *testing.T) {
	dir := t.TempDir()

	byPlanPath, _, err := Write(dir, 2026, sampleRows(), sampleTotals(), testAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(byPlanPath) != "gho_2026_prioritized_by_plan.csv" {
		t.Errorf("by-plan filename = %s", filepath.Base(byPlanPath))
	}

	records := readRecords(t, byPlanPath)
	if len(records) != 4 { // header + 2 plans + Total
		t.Fatalf("len(records) = %d, want 4", len(records))
	}

	wantHeader := []string{
		"Plan", "Plan Type",
		"Prioritized Requirements (USD)", "Funding received (USD)",
		"Unfunded (USD)", "Coverage (%)",
		"Full Requirements (USD)",
		"People in Need", "People Targeted", "People Prioritized",
	}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v", records[0])
	}

	wantA := []string{"A", "RRP", "100", "50", "50", "50.0", "400", "1000", "800", "500"}
	if !reflect.DeepEqual(records[2], wantA) {
		t.Errorf("row A = %v, want %v", records[2], wantA)
	}

	total := records[3]
	if total[0] != "Total" {
		t.Fatalf("last row = %v, want Total row", total)
	}
	if total[2] != "300" || total[3] != "50" || total[5] != "16.7" {
		t.Errorf("Total row = %v", total)
	}
	if total[6] != "" || total[7] != "" {
		t.Errorf("Total row trailing cells should be blank: %v", total)
	}
}

func TestWrite_TotalsContents(t *testing.T) {
	dir := t.TempDir()

	_, totalsPath, err := Write(dir, 2026, sampleRows(), sampleTotals(), testAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(totalsPath) != "gho_2026_totals.csv" {
		t.Errorf("totals filename = %s", filepath.Base(totalsPath))
	}

	want := [][]string{
		{"Metric", "Value"},
		{"Prioritized Requirements (USD)", "300"},
		{"Funding received (USD)", "50"},
		{"Unfunded (USD)", "250"},
		{"Coverage (%)", "16.7"},
		{"Pledges (USD)", "1000"},
		{"Plans Count", "2"},
		{"Last Updated", "2026-08-24 06:00 UTC"},
	}
	if got := readRecords(t, totalsPath); !reflect.DeepEqual(got, want) {
		t.Errorf("totals records = %v, want %v", got, want)
	}
}

func TestWrite_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 2; i++ {
		if _, _, err := Write(dir, 2026, sampleRows(), sampleTotals(), testAt); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("output dir has %d entries, want 2: %v", len(entries), names)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWrite_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")

	if _, _, err := Write(dir, 2026, sampleRows(), sampleTotals(), testAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, TotalsFilename(2026))); err != nil {
		t.Errorf("totals file missing: %v", err)
	}
}
