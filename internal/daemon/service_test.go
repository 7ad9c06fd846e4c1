package daemon

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/model"
	"github.com/ocha-dataviz/ghotrack/internal/pipeline"
	"github.com/ocha-dataviz/ghotrack/internal/store"
)

func testService(t *testing.T, st *store.Store) *Service {
	t.Helper()
	return New(Config{
		Addr:     "127.0.0.1:0",
		Interval: time.Hour,
		Job:      &pipeline.Job{OutputDir: t.TempDir()},
		Store:    st,
	})
}

func TestNew_Defaults(t *testing.T) {
	svc := New(Config{Job: &pipeline.Job{}})

	if svc.cfg.Interval != 24*time.Hour {
		t.Errorf("Interval = %v, want 24h default", svc.cfg.Interval)
	}
	if svc.cfg.Addr != "127.0.0.1:8686" {
		t.Errorf("Addr = %q, want default", svc.cfg.Addr)
	}

	// Sub-minute intervals are rejected, not honored.
	svc = New(Config{Interval: time.Second, Job: &pipeline.Job{}})
	if svc.cfg.Interval != 24*time.Hour {
		t.Errorf("Interval = %v, want 24h for sub-minute input", svc.cfg.Interval)
	}
}

func TestHandleHealth(t *testing.T) {
	svc := testService(t, nil)

	rec := httptest.NewRecorder()
	svc.handleHealth(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok\n" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestHandleStatus(t *testing.T) {
	svc := testService(t, nil)

	summary := model.RunSummary{
		At:        time.Now(),
		Totals:    model.Totals{Requirement: 300, Funding: 50, CoveragePct: 16.7},
		PlanCount: 2,
		Unmatched: 1,
	}
	svc.mu.Lock()
	svc.lastRunAt = summary.At
	svc.runCount = 1
	svc.lastSummary = &summary
	svc.mu.Unlock()

	rec := httptest.NewRecorder()
	svc.handleStatus(rec, httptest.NewRequest("GET", "/v1/status", nil))

	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if st.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", st.RunCount)
	}
	if st.LastSummary == nil {
		t.Fatal("LastSummary missing")
	}
	if st.LastSummary.CoveragePct != 16.7 || st.LastSummary.PlanCount != 2 {
		t.Errorf("LastSummary = %+v", st.LastSummary)
	}
	if st.IntervalSecs != 3600 {
		t.Errorf("IntervalSecs = %d, want 3600", st.IntervalSecs)
	}
}

func TestHandleRuns(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	summary := model.RunSummary{
		At:        time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC),
		Totals:    model.Totals{CoveragePct: 16.7},
		PlanCount: 2,
	}
	if err := st.RecordRun(summary, nil); err != nil {
		t.Fatal(err)
	}

	svc := testService(t, st)

	rec := httptest.NewRecorder()
	svc.handleRuns(rec, httptest.NewRequest("GET", "/v1/runs", nil))

	var runs []struct {
		Status      string  `json:"status"`
		CoveragePct float64 `json:"coverage_pct"`
		PlanCount   int     `json:"plan_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("invalid runs JSON: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].Status != "ok" || runs[0].CoveragePct != 16.7 || runs[0].PlanCount != 2 {
		t.Errorf("runs[0] = %+v", runs[0])
	}
}
