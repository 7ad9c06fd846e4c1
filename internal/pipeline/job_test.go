package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/fts"
	"github.com/ocha-dataviz/ghotrack/internal/model"
	"github.com/ocha-dataviz/ghotrack/internal/report"
)

// stubFetcher counts calls so tests can assert ordering guarantees.
type stubFetcher struct {
	overview      *fts.Overview
	overviewErr   error
	pledges       float64
	pledgesErr    error
	overviewCalls int
	pledgeCalls   int
}

func (s *stubFetcher) FetchOverview(_ context.Context, _ string) (*fts.Overview, error) {
	s.overviewCalls++
	if s.overviewErr != nil {
		return nil, s.overviewErr
	}
	return s.overview, nil
}

func (s *stubFetcher) FetchPledges(_ context.Context, _ string) (float64, error) {
	s.pledgeCalls++
	if s.pledgesErr != nil {
		return 0, s.pledgesErr
	}
	return s.pledges, nil
}

func writeRequirements(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqs.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func goodOverview() *fts.Overview {
	return &fts.Overview{
		Plans: map[string]model.FundingRecord{
			"A": {ShortName: "A", FullName: "A Plan", PlanType: "HRP", Funding: 50},
		},
	}
}

func testJob(t *testing.T, fetcher Fetcher) *Job {
	t.Helper()
	return &Job{
		RequirementsPath: writeRequirements(t, "plan,prioritized_requirements\nA,100\nB,200\n"),
		OutputDir:        t.TempDir(),
		Year:             2026,
		OverviewURL:      "http://example.invalid/overview",
		FlowURL:          "http://example.invalid/flow",
		Fetcher:          fetcher,
		Now:              func() time.Time { return time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC) },
	}
}

func TestJobRun_Success(t *testing.T) {
	fetcher := &stubFetcher{overview: goodOverview(), pledges: 1_000}
	job := testJob(t, fetcher)

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := result.Summary
	if s.PlanCount != 2 || s.Matched != 1 || s.Unmatched != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", s.PlanCount, s.Matched, s.Unmatched)
	}
	if s.Totals.Requirement != 300 || s.Totals.Funding != 50 {
		t.Errorf("totals = %+v", s.Totals)
	}
	if s.Totals.Pledges != 1_000 {
		t.Errorf("Pledges = %v, want 1000", s.Totals.Pledges)
	}

	for _, path := range []string{result.ByPlanPath, result.TotalsPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output file missing: %v", err)
		}
	}
}

func TestJobRun_InputErrorBeforeFetch(t *testing.T) {
	fetcher := &stubFetcher{overview: goodOverview()}
	job := testJob(t, fetcher)
	job.RequirementsPath = filepath.Join(t.TempDir(), "absent.csv")

	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing requirements file")
	}
	if fetcher.overviewCalls != 0 {
		t.Errorf("overviewCalls = %d, fetch must not happen on input error", fetcher.overviewCalls)
	}
}

func TestJobRun_FetchErrorLeavesOutputIntact(t *testing.T) {
	fetcher := &stubFetcher{overviewErr: fts.ErrUnavailable}
	job := testJob(t, fetcher)

	// Previous run's output.
	byPlan := filepath.Join(job.OutputDir, report.ByPlanFilename(job.Year))
	previous := []byte("previous contents\n")
	if err := os.WriteFile(byPlan, previous, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := job.Run(context.Background())
	if !errors.Is(err, fts.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}

	got, err := os.ReadFile(byPlan)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, previous) {
		t.Error("previous output was modified after a fetch failure")
	}
}

func TestJobRun_PledgeFailureIsWarning(t *testing.T) {
	fetcher := &stubFetcher{overview: goodOverview(), pledgesErr: fts.ErrUnavailable}
	var warnings strings.Builder

	job := testJob(t, fetcher)
	job.Warnings = &warnings

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("pledge failure must not fail the run: %v", err)
	}
	if result.Summary.Totals.Pledges != 0 {
		t.Errorf("Pledges = %v, want 0 after failed fetch", result.Summary.Totals.Pledges)
	}
	if !strings.Contains(warnings.String(), "pledge data unavailable") {
		t.Errorf("missing pledge warning, got %q", warnings.String())
	}
}

func TestJobRun_SkipsFlowWhenURLEmpty(t *testing.T) {
	fetcher := &stubFetcher{overview: goodOverview()}
	job := testJob(t, fetcher)
	job.FlowURL = ""

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.pledgeCalls != 0 {
		t.Errorf("pledgeCalls = %d, want 0 with no flow URL", fetcher.pledgeCalls)
	}
}

func TestJobRun_DryRunWritesNothing(t *testing.T) {
	fetcher := &stubFetcher{overview: goodOverview()}
	job := testJob(t, fetcher)
	job.DryRun = true

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ByPlanPath != "" || result.TotalsPath != "" {
		t.Errorf("dry run returned paths: %q, %q", result.ByPlanPath, result.TotalsPath)
	}

	entries, err := os.ReadDir(job.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dry run wrote %d files", len(entries))
	}
}

func TestJobRun_Deterministic(t *testing.T) {
	fetcher := &stubFetcher{overview: goodOverview(), pledges: 500}
	job := testJob(t, fetcher)

	read := func() ([]byte, []byte) {
		t.Helper()
		result, err := job.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		byPlan, err := os.ReadFile(result.ByPlanPath)
		if err != nil {
			t.Fatal(err)
		}
		totals, err := os.ReadFile(result.TotalsPath)
		if err != nil {
			t.Fatal(err)
		}
		return byPlan, totals
	}

	byPlan1, totals1 := read()
	byPlan2, totals2 := read()

	if !bytes.Equal(byPlan1, byPlan2) {
		t.Error("by-plan output differs between identical runs")
	}
	if !bytes.Equal(totals1, totals2) {
		t.Error("totals output differs between identical runs")
	}
}

func TestJobRun_UnmatchedWarning(t *testing.T) {
	fetcher := &stubFetcher{overview: goodOverview()}
	var warnings strings.Builder

	job := testJob(t, fetcher)
	job.Warnings = &warnings

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(warnings.String(), `no FTS match for plan "B"`) {
		t.Errorf("missing unmatched warning, got %q", warnings.String())
	}
}
