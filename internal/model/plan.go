// Package model defines domain types for GHO plans, funding, and coverage.
package model

// PlanRequirement is one row of the static prioritized-requirements sheet.
type PlanRequirement struct {
	Name        string // spreadsheet plan name, the join key
	Requirement int64  // prioritized requirement in USD
}

// PeopleFigures holds the optional people columns for a plan.
// Values are carried as strings because the sheet leaves some cells blank.
type PeopleFigures struct {
	InNeed      string
	Targeted    string
	Prioritized string
}

// FundingRecord is one GHO plan as returned by the FTS plan overview.
type FundingRecord struct {
	PlanID           int64
	FullName         string
	ShortName        string
	PlanType         string // plan type code, e.g. "HRP", "RRP"
	Funding          float64
	FullRequirements float64
}

// PlanCoverage is the merged output row for a single plan.
type PlanCoverage struct {
	Name             string
	PlanType         string
	Requirement      int64
	Funding          float64
	Unfunded         float64
	CoveragePct      float64 // percentage, rounded to one decimal; 0 when Requirement is 0
	FullRequirements float64
	People           PeopleFigures
	Matched          bool // false when the plan had no FTS counterpart
}
