// Package pipeline merges static prioritized requirements with live FTS
// funding data and computes coverage.
package pipeline

import (
	"math"
	"sort"
	"strings"

	"github.com/ocha-dataviz/ghotrack/internal/model"
)

// Match finds the FTS record for a spreadsheet plan name. Tried in order:
// exact short-name match, configured alias, case-insensitive substring of
// the API full name, and finally a first-word match ignoring any
// parenthesized suffix (so "Uganda" matches "Uganda (RRP)").
func Match(name string, plans map[string]model.FundingRecord, aliases map[string]string) (model.FundingRecord, bool) {
	if rec, ok := plans[name]; ok {
		return rec, true
	}

	if mapped, ok := aliases[name]; ok {
		if rec, ok := plans[mapped]; ok {
			return rec, true
		}
	}

	// Fuzzy passes scan short names in sorted order so the result is
	// deterministic across runs.
	shorts := make([]string, 0, len(plans))
	for short := range plans {
		shorts = append(shorts, short)
	}
	sort.Strings(shorts)

	lower := strings.ToLower(name)
	for _, short := range shorts {
		if strings.Contains(strings.ToLower(plans[short].FullName), lower) {
			return plans[short], true
		}
	}

	base := baseName(name)
	for _, short := range shorts {
		if baseName(short) == base {
			return plans[short], true
		}
	}

	return model.FundingRecord{}, false
}

// baseName lowercases a plan name and strips any parenthesized suffix.
func baseName(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// Merge produces one coverage row per static plan, in descending order of
// prioritized requirement. Plans without an FTS counterpart are kept with
// zero funding so the chart schema stays stable; plans present only in the
// API are dropped.
func Merge(
	reqs []model.PlanRequirement,
	people map[string]model.PeopleFigures,
	plans map[string]model.FundingRecord,
	aliases map[string]string,
) []model.PlanCoverage {
	rows := make([]model.PlanCoverage, 0, len(reqs))

	for _, pr := range reqs {
		row := model.PlanCoverage{
			Name:        pr.Name,
			Requirement: pr.Requirement,
			People:      people[pr.Name],
		}

		if rec, ok := Match(pr.Name, plans, aliases); ok {
			row.Matched = true
			row.PlanType = rec.PlanType
			row.Funding = rec.Funding
			row.FullRequirements = rec.FullRequirements
		}

		row.Unfunded = math.Max(0, float64(pr.Requirement)-row.Funding)
		row.CoveragePct = coveragePct(row.Funding, float64(pr.Requirement))

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Requirement != rows[j].Requirement {
			return rows[i].Requirement > rows[j].Requirement
		}
		return rows[i].Name < rows[j].Name
	})

	return rows
}

// ComputeTotals sums the merged rows and applies overlap deductions to the
// requirement side. A deduction is applied only when its plan is actually
// in the row set, so a plan dropped from the sheet does not leave a
// phantom deduction behind.
func ComputeTotals(rows []model.PlanCoverage, deductions map[string]int64, pledges float64) model.Totals {
	var t model.Totals
	t.Pledges = pledges

	present := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		t.Requirement += r.Requirement
		t.Funding += r.Funding
		present[r.Name] = struct{}{}
	}

	for name, amount := range deductions {
		if _, ok := present[name]; ok {
			t.Requirement -= amount
		}
	}

	t.Unfunded = math.Max(0, float64(t.Requirement)-t.Funding)
	t.CoveragePct = coveragePct(t.Funding, float64(t.Requirement))
	return t
}

// coveragePct returns funding/requirement as a percentage rounded to one
// decimal place, or 0 when the requirement is not positive.
func coveragePct(funding, requirement float64) float64 {
	if requirement <= 0 {
		return 0
	}
	return math.Round(funding/requirement*1000) / 10
}
