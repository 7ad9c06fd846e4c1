package pipeline

import (
	"testing"

	"github.com/ocha-dataviz/ghotrack/internal/model"
)

func fundingMap(recs ...model.FundingRecord) map[string]model.FundingRecord {
	m := make(map[string]model.FundingRecord, len(recs))
	for _, r := range recs {
		m[r.ShortName] = r
	}
	return m
}

func TestMatch_Exact(t *testing.T) {
	plans := fundingMap(model.FundingRecord{ShortName: "Yemen", FullName: "Yemen HRP 2026", Funding: 10})

	rec, ok := Match("Yemen", plans, nil)
	if !ok || rec.Funding != 10 {
		t.Fatalf("Match(Yemen) = (%+v, %v), want exact hit", rec, ok)
	}
}

func TestMatch_Alias(t *testing.T) {
	plans := fundingMap(model.FundingRecord{ShortName: "oPt", FullName: "occupied Palestinian territory", Funding: 20})
	aliases := map[string]string{"Occupied Palestinian Territory": "oPt"}

	rec, ok := Match("Occupied Palestinian Territory", plans, aliases)
	if !ok || rec.ShortName != "oPt" {
		t.Fatalf("alias match failed: (%+v, %v)", rec, ok)
	}
}

func TestMatch_FullNameSubstring(t *testing.T) {
	plans := fundingMap(model.FundingRecord{
		ShortName: "AFG",
		FullName:  "Afghanistan Humanitarian Needs and Response Plan 2026",
		Funding:   30,
	})

	rec, ok := Match("afghanistan", plans, nil)
	if !ok || rec.ShortName != "AFG" {
		t.Fatalf("substring match failed: (%+v, %v)", rec, ok)
	}
}

func TestMatch_BaseNameIgnoresParens(t *testing.T) {
	plans := fundingMap(model.FundingRecord{ShortName: "Uganda (RRP)", FullName: "UGA RRP", Funding: 40})

	rec, ok := Match("Uganda", plans, nil)
	if !ok || rec.ShortName != "Uganda (RRP)" {
		t.Fatalf("base-name match failed: (%+v, %v)", rec, ok)
	}
}

func TestMatch_NoHit(t *testing.T) {
	plans := fundingMap(model.FundingRecord{ShortName: "Chad", FullName: "Chad HRP"})

	if _, ok := Match("Somewhere Else", plans, nil); ok {
		t.Fatal("expected no match")
	}
}

func TestMatch_Deterministic(t *testing.T) {
	// Two full names both contain the query; the lexically first short
	// name must win on every call.
	plans := fundingMap(
		model.FundingRecord{ShortName: "B-Plan", FullName: "Region Response B"},
		model.FundingRecord{ShortName: "A-Plan", FullName: "Region Response A"},
	)

	first, _ := Match("Region", plans, nil)
	for i := 0; i < 20; i++ {
		got, ok := Match("Region", plans, nil)
		if !ok || got.ShortName != first.ShortName {
			t.Fatalf("iteration %d: got %q, want stable %q", i, got.ShortName, first.ShortName)
		}
	}
	if first.ShortName != "A-Plan" {
		t.Errorf("fuzzy winner = %q, want A-Plan (sorted order)", first.ShortName)
	}
}

func TestMerge_MatchedAndUnmatched(t *testing.T) {
	reqs := []model.PlanRequirement{
		{Name: "A", Requirement: 100},
		{Name: "B", Requirement: 200},
	}
	plans := fundingMap(model.FundingRecord{ShortName: "A", FullName: "A Plan", PlanType: "HRP", Funding: 50})

	rows := Merge(reqs, nil, plans, nil)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	// Sorted by requirement descending: B first.
	b := rows[0]
	if b.Name != "B" || b.Matched || b.Funding != 0 {
		t.Errorf("rows[0] = %+v, want unmatched B with zero funding", b)
	}
	if b.Unfunded != 200 || b.CoveragePct != 0 {
		t.Errorf("B unfunded/coverage = %v/%v, want 200/0", b.Unfunded, b.CoveragePct)
	}

	a := rows[1]
	if !a.Matched || a.Funding != 50 || a.PlanType != "HRP" {
		t.Errorf("rows[1] = %+v, want matched A", a)
	}
	if a.CoveragePct != 50.0 {
		t.Errorf("A coverage = %v, want 50.0", a.CoveragePct)
	}
	if a.Unfunded != 50 {
		t.Errorf("A unfunded = %v, want 50", a.Unfunded)
	}
}

func TestMerge_APIOnlyPlansDropped(t *testing.T) {
	reqs := []model.PlanRequirement{{Name: "A", Requirement: 100}}
	plans := fundingMap(
		model.FundingRecord{ShortName: "A", FullName: "A Plan", Funding: 10},
		model.FundingRecord{ShortName: "Extra", FullName: "Extra Plan", Funding: 99},
	)

	rows := Merge(reqs, nil, plans, nil)
	if len(rows) != 1 || rows[0].Name != "A" {
		t.Fatalf("rows = %+v, want only A", rows)
	}
}

func TestMerge_TiesBrokenByName(t *testing.T) {
	reqs := []model.PlanRequirement{
		{Name: "Zulu", Requirement: 100},
		{Name: "Alpha", Requirement: 100},
	}

	rows := Merge(reqs, nil, nil, nil)
	if rows[0].Name != "Alpha" || rows[1].Name != "Zulu" {
		t.Errorf("tie order = [%s, %s], want [Alpha, Zulu]", rows[0].Name, rows[1].Name)
	}
}

func TestMerge_PeopleJoined(t *testing.T) {
	reqs := []model.PlanRequirement{{Name: "Yemen", Requirement: 100}}
	people := map[string]model.PeopleFigures{
		"Yemen": {InNeed: "21600000", Targeted: "12900000"},
	}

	rows := Merge(reqs, people, nil, nil)
	if rows[0].People.InNeed != "21600000" {
		t.Errorf("People = %+v", rows[0].People)
	}
}

func TestComputeTotals(t *testing.T) {
	rows := []model.PlanCoverage{
		{Name: "B", Requirement: 200, Funding: 0},
		{Name: "A", Requirement: 100, Funding: 50},
	}

	totals := ComputeTotals(rows, nil, 1_000)
	if totals.Requirement != 300 {
		t.Errorf("Requirement = %d, want 300", totals.Requirement)
	}
	if totals.Funding != 50 {
		t.Errorf("Funding = %v, want 50", totals.Funding)
	}
	if totals.Unfunded != 250 {
		t.Errorf("Unfunded = %v, want 250", totals.Unfunded)
	}
	if totals.CoveragePct != 16.7 { // 50/300 rounded to one decimal
		t.Errorf("CoveragePct = %v, want 16.7", totals.CoveragePct)
	}
	if totals.Pledges != 1_000 {
		t.Errorf("Pledges = %v, want 1000", totals.Pledges)
	}
}

func TestComputeTotals_DeductionOnlyWhenPresent(t *testing.T) {
	rows := []model.PlanCoverage{
		{Name: "Sudan (RRP)", Requirement: 1_000},
		{Name: "Chad", Requirement: 500},
	}
	deductions := map[string]int64{
		"Sudan (RRP)": 300,
		"Ghost Plan":  999, // not in rows, must not apply
	}

	totals := ComputeTotals(rows, deductions, 0)
	if totals.Requirement != 1_200 {
		t.Errorf("Requirement = %d, want 1200 (1500 minus the present deduction)", totals.Requirement)
	}
}

func TestCoveragePct(t *testing.T) {
	tests := []struct {
		funding, requirement, want float64
	}{
		{50, 100, 50.0},
		{50, 300, 16.7},
		{1, 3, 33.3},
		{150, 100, 150.0},
		{10, 0, 0},
		{10, -5, 0},
	}

	for _, tt := range tests {
		if got := coveragePct(tt.funding, tt.requirement); got != tt.want {
			t.Errorf("coveragePct(%v, %v) = %v, want %v", tt.funding, tt.requirement, got, tt.want)
		}
	}
}
