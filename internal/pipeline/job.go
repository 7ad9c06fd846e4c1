package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/fts"
	"github.com/ocha-dataviz/ghotrack/internal/model"
	"github.com/ocha-dataviz/ghotrack/internal/report"
	"github.com/ocha-dataviz/ghotrack/internal/source"
)

// Fetcher is the slice of the FTS client the job needs. Tests substitute
// an httptest-backed client or a stub.
type Fetcher interface {
	FetchOverview(ctx context.Context, url string) (*fts.Overview, error)
	FetchPledges(ctx context.Context, url string) (float64, error)
}

// Job is one merge-and-report run. All inputs are explicit so runs are
// reproducible: with equal inputs and an equal clock the output files are
// byte-identical.
type Job struct {
	RequirementsPath string
	PeoplePath       string
	OutputDir        string
	Year             int
	OverviewURL      string
	FlowURL          string
	Aliases          map[string]string
	Deductions       map[string]int64
	Fetcher          Fetcher
	Now              func() time.Time
	Warnings         io.Writer // nil suppresses warnings
	DryRun           bool      // compute but skip file writes
}

// Result holds everything a run produced.
type Result struct {
	Rows       []model.PlanCoverage
	Summary    model.RunSummary
	ByPlanPath string
	TotalsPath string
}

// Run executes the job: load static inputs, fetch live data, merge,
// compute totals, write both CSVs atomically. Static-input errors abort
// before any network call; fetch errors abort before any write; a write
// error leaves the previous output files intact.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	started := now()

	reqResult, err := source.LoadRequirements(j.RequirementsPath)
	if err != nil {
		return nil, err
	}
	if len(reqResult.Plans) == 0 {
		return nil, &source.FormatError{File: j.RequirementsPath, Reason: "no plans with a positive requirement"}
	}

	people, err := source.LoadPeople(j.PeoplePath)
	if err != nil {
		return nil, err
	}

	overview, err := j.Fetcher.FetchOverview(ctx, j.OverviewURL)
	if err != nil {
		return nil, err
	}
	if overview.Skipped > 0 {
		j.warnf("warning: %d API plans skipped (missing or non-numeric funding)\n", overview.Skipped)
	}

	// Pledges are supplementary: a flow failure downgrades to a warning.
	var pledges float64
	if j.FlowURL != "" {
		pledges, err = j.Fetcher.FetchPledges(ctx, j.FlowURL)
		if err != nil {
			j.warnf("warning: pledge data unavailable: %v\n", err)
			pledges = 0
		}
	}

	rows := Merge(reqResult.Plans, people, overview.Plans, j.Aliases)
	totals := ComputeTotals(rows, j.Deductions, pledges)

	result := &Result{
		Rows: rows,
		Summary: model.RunSummary{
			At:             started,
			Totals:         totals,
			PlanCount:      len(rows),
			SkippedAPIRows: overview.Skipped,
		},
	}
	for _, r := range rows {
		if r.Matched {
			result.Summary.Matched++
		} else {
			result.Summary.Unmatched++
			j.warnf("warning: no FTS match for plan %q, reporting zero funding\n", r.Name)
		}
	}

	if !j.DryRun {
		result.ByPlanPath, result.TotalsPath, err = report.Write(j.OutputDir, j.Year, rows, totals, started)
		if err != nil {
			return nil, fmt.Errorf("writing output: %w", err)
		}
	}

	result.Summary.Duration = now().Sub(started)
	return result, nil
}

func (j *Job) warnf(format string, args ...any) {
	if j.Warnings != nil {
		fmt.Fprintf(j.Warnings, format, args...)
	}
}
