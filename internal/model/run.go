package model

import "time"

// Totals holds the aggregate line recomputed from the merged set each run.
type Totals struct {
	Requirement int64 // after overlap deductions
	Funding     float64
	Unfunded    float64
	CoveragePct float64
	Pledges     float64
}

// RunSummary describes one completed (or failed) merge run.
type RunSummary struct {
	At             time.Time
	Totals         Totals
	PlanCount      int
	Matched        int
	Unmatched      int
	SkippedAPIRows int // API rows dropped for missing/bad funding figures
	Duration       time.Duration
}
