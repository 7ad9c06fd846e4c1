// Package store provides a SQLite-backed log of merge runs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store records run history and per-run plan snapshots.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run log database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one row of the run log.
type Run struct {
	ID      int64
	Summary model.RunSummary
	Status  string // "ok" or "error"
	Error   string
}

// RecordRun stores a successful run and its plan snapshots.
func (s *Store) RecordRun(summary model.RunSummary, rows []model.PlanCoverage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO runs
		(run_at, status, total_requirement, total_funding, total_unfunded,
		 coverage_pct, pledges, plan_count, matched, unmatched,
		 skipped_api_rows, duration_ms, error)
		VALUES (?, 'ok', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '')`,
		summary.At.UTC().Format(time.RFC3339),
		summary.Totals.Requirement, summary.Totals.Funding, summary.Totals.Unfunded,
		summary.Totals.CoveragePct, summary.Totals.Pledges,
		summary.PlanCount, summary.Matched, summary.Unmatched,
		summary.SkippedAPIRows, summary.Duration.Milliseconds(),
	)
	if err != nil {
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, r := range rows {
		matched := 0
		if r.Matched {
			matched = 1
		}
		_, err = tx.Exec(`INSERT INTO plan_snapshots
			(run_id, plan, plan_type, requirement, funding, coverage_pct, matched)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Name, r.PlanType, r.Requirement, r.Funding, r.CoveragePct, matched,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordFailure stores a failed run with its error text.
func (s *Store) RecordFailure(at time.Time, runErr error) error {
	_, err := s.db.Exec(`INSERT INTO runs (run_at, status, error)
		VALUES (?, 'error', ?)`,
		at.UTC().Format(time.RFC3339), runErr.Error(),
	)
	return err
}

// LastRun returns the most recent run, or nil if the log is empty.
func (s *Store) LastRun() (*Run, error) {
	runs, err := s.RecentRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		id, run_at, status, total_requirement, total_funding, total_unfunded,
		coverage_pct, pledges, plan_count, matched, unmatched,
		skipped_api_rows, duration_ms, error
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var runAt string
		var req, planCount, matched, unmatched, skipped, durationMs sql.NullInt64
		var funding, unfunded, coverage, pledges sql.NullFloat64

		err := rows.Scan(
			&r.ID, &runAt, &r.Status, &req, &funding, &unfunded,
			&coverage, &pledges, &planCount, &matched, &unmatched,
			&skipped, &durationMs, &r.Error,
		)
		if err != nil {
			return nil, err
		}

		r.Summary.At, _ = time.Parse(time.RFC3339, runAt)
		r.Summary.Totals = model.Totals{
			Requirement: req.Int64,
			Funding:     funding.Float64,
			Unfunded:    unfunded.Float64,
			CoveragePct: coverage.Float64,
			Pledges:     pledges.Float64,
		}
		r.Summary.PlanCount = int(planCount.Int64)
		r.Summary.Matched = int(matched.Int64)
		r.Summary.Unmatched = int(unmatched.Int64)
		r.Summary.SkippedAPIRows = int(skipped.Int64)
		r.Summary.Duration = time.Duration(durationMs.Int64) * time.Millisecond

		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PlanSnapshots returns the per-plan rows recorded for a run.
func (s *Store) PlanSnapshots(runID int64) ([]model.PlanCoverage, error) {
	rows, err := s.db.Query(`SELECT plan, plan_type, requirement, funding, coverage_pct, matched
		FROM plan_snapshots WHERE run_id = ? ORDER BY requirement DESC, plan`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []model.PlanCoverage
	for rows.Next() {
		var pc model.PlanCoverage
		var matched int
		if err := rows.Scan(&pc.Name, &pc.PlanType, &pc.Requirement, &pc.Funding, &pc.CoveragePct, &matched); err != nil {
			return nil, err
		}
		pc.Matched = matched != 0
		result = append(result, pc)
	}
	return result, rows.Err()
}

// RunCount returns the number of logged runs.
func (s *Store) RunCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// Dir returns the platform-appropriate data directory for the run log.
func Dir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ghotrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "ghotrack")
}

// Path returns the full path to the run log database.
func Path() string {
	return filepath.Join(Dir(), "runs.db")
}
