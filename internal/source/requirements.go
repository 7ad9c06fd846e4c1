// Package source loads the static input sheets: prioritized requirements
// and the optional people figures, both UTF-8 CSV with a header row.
package source

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ocha-dataviz/ghotrack/internal/model"
)

// FormatError indicates a static input file is missing required columns or
// contains an unparseable value. It aborts the run before any network call.
type FormatError struct {
	File   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("source: %s: %s", e.File, e.Reason)
}

// RequirementsResult holds the parsed requirements sheet.
type RequirementsResult struct {
	Plans      []model.PlanRequirement
	ZeroOrLess int // rows excluded for a zero or negative requirement
}

// LoadRequirements parses the prioritized-requirements sheet. Plans with a
// requirement of zero or less are excluded, matching the published tracker
// (Niger and overlap placeholder rows carry zero).
func LoadRequirements(path string) (*RequirementsResult, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	planCol, ok := header["plan"]
	if !ok {
		return nil, &FormatError{File: path, Reason: `missing required column "plan"`}
	}
	reqCol, ok := header["prioritized_requirements"]
	if !ok {
		return nil, &FormatError{File: path, Reason: `missing required column "prioritized_requirements"`}
	}

	result := &RequirementsResult{}
	seen := make(map[string]int) // plan name -> index into result.Plans

	for i, row := range rows {
		name := strings.TrimSpace(cell(row, planCol))
		if name == "" {
			continue
		}

		req, err := parseUSD(cell(row, reqCol))
		if err != nil {
			return nil, &FormatError{
				File:   path,
				Reason: fmt.Sprintf("row %d (%s): bad requirement: %v", i+2, name, err),
			}
		}
		if req <= 0 {
			result.ZeroOrLess++
			continue
		}

		pr := model.PlanRequirement{Name: name, Requirement: req}
		if idx, dup := seen[name]; dup {
			// Last occurrence wins, as with a keyed load.
			result.Plans[idx] = pr
			continue
		}
		seen[name] = len(result.Plans)
		result.Plans = append(result.Plans, pr)
	}

	return result, nil
}

// LoadPeople parses the people-figures sheet keyed by plan name.
// A missing file is not an error: people columns simply render blank.
func LoadPeople(path string) (map[string]model.PeopleFigures, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	planCol, ok := header["plan"]
	if !ok {
		return nil, &FormatError{File: path, Reason: `missing required column "plan"`}
	}
	inNeedCol := colIndex(header, "people_in_need")
	targetedCol := colIndex(header, "people_targeted")
	prioritizedCol := colIndex(header, "people_prioritized")

	people := make(map[string]model.PeopleFigures)
	for _, row := range rows {
		name := strings.TrimSpace(cell(row, planCol))
		if name == "" {
			continue
		}
		people[name] = model.PeopleFigures{
			InNeed:      strings.TrimSpace(cell(row, inNeedCol)),
			Targeted:    strings.TrimSpace(cell(row, targetedCol)),
			Prioritized: strings.TrimSpace(cell(row, prioritizedCol)),
		}
	}
	return people, nil
}

// readCSV reads all records and returns data rows plus a header index
// keyed by lowercased, trimmed column name.
func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &FormatError{File: path, Reason: err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are handled per-cell

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, &FormatError{File: path, Reason: fmt.Sprintf("invalid CSV: %v", err)}
	}
	if len(records) == 0 {
		return nil, nil, &FormatError{File: path, Reason: "empty file, expected a header row"}
	}

	header := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return records[1:], header, nil
}

// colIndex returns the column index for an optional column, or -1.
func colIndex(header map[string]int, name string) int {
	if idx, ok := header[name]; ok {
		return idx
	}
	return -1
}

// cell returns row[idx] or "" when the index is absent or the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseUSD parses a whole-dollar amount, tolerating thousands separators
// and a leading dollar sign from spreadsheet exports.
func parseUSD(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return v, nil
}
