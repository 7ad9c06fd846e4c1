// Package daemon provides the long-running scheduled updater service.
//
// Besides running the merge job on an interval, it serves the output
// directory over HTTP so the charting tool can pull the CSVs from a
// stable URL, plus JSON status and run-log endpoints.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/model"
	"github.com/ocha-dataviz/ghotrack/internal/pipeline"
	"github.com/ocha-dataviz/ghotrack/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr     string
	Interval time.Duration
	Job      *pipeline.Job
	Store    *store.Store // optional run log
}

// Status is served at /v1/status.
type Status struct {
	StartedAt    time.Time    `json:"started_at"`
	LastRunAt    time.Time    `json:"last_run_at,omitzero"`
	NextRunAt    time.Time    `json:"next_run_at"`
	IntervalSecs int          `json:"interval_secs"`
	RunCount     int64        `json:"run_count"`
	LastError    string       `json:"last_error,omitempty"`
	LastSummary  *summaryJSON `json:"last_summary,omitempty"`
	OutputDir    string       `json:"output_dir"`
}

type summaryJSON struct {
	TotalRequirementUSD int64   `json:"total_requirement_usd"`
	TotalFundingUSD     float64 `json:"total_funding_usd"`
	CoveragePct         float64 `json:"coverage_pct"`
	PlanCount           int     `json:"plan_count"`
	Unmatched           int     `json:"unmatched"`
	SkippedAPIRows      int     `json:"skipped_api_rows"`
}

// Service runs the merge job on a schedule and serves status over HTTP.
type Service struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	nextRunAt   time.Time
	runCount    int64
	lastError   string
	lastSummary *model.RunSummary
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < time.Minute {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8686"
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// Run starts the HTTP endpoints and the update schedule until ctx is
// canceled. The first update runs immediately.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/runs", s.handleRuns)
	mux.Handle("/data/", http.StripPrefix("/data/",
		http.FileServer(http.Dir(s.cfg.Job.OutputDir))))

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.runOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	now := time.Now()
	result, err := s.cfg.Job.Run(ctx)

	s.mu.Lock()
	s.lastRunAt = now
	s.nextRunAt = now.Add(s.cfg.Interval)
	s.runCount++
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		summary := result.Summary
		s.lastSummary = &summary
	}
	s.mu.Unlock()

	if err != nil {
		// Fail closed: previous output files stay in place.
		log.Printf("ghotrack daemon update failed: %v", err)
		if s.cfg.Store != nil {
			if serr := s.cfg.Store.RecordFailure(now, err); serr != nil {
				log.Printf("ghotrack daemon: recording failure: %v", serr)
			}
		}
		return
	}

	log.Printf("ghotrack daemon update ok: %d plans, coverage %.1f%%",
		result.Summary.PlanCount, result.Summary.Totals.CoveragePct)
	if s.cfg.Store != nil {
		if serr := s.cfg.Store.RecordRun(result.Summary, result.Rows); serr != nil {
			log.Printf("ghotrack daemon: recording run: %v", serr)
		}
	}
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:    s.startedAt,
		LastRunAt:    s.lastRunAt,
		NextRunAt:    s.nextRunAt,
		IntervalSecs: int(s.cfg.Interval.Seconds()),
		RunCount:     s.runCount,
		LastError:    s.lastError,
		OutputDir:    s.cfg.Job.OutputDir,
	}
	if s.lastSummary != nil {
		st.LastSummary = &summaryJSON{
			TotalRequirementUSD: s.lastSummary.Totals.Requirement,
			TotalFundingUSD:     s.lastSummary.Totals.Funding,
			CoveragePct:         s.lastSummary.Totals.CoveragePct,
			PlanCount:           s.lastSummary.PlanCount,
			Unmatched:           s.lastSummary.Unmatched,
			SkippedAPIRows:      s.lastSummary.SkippedAPIRows,
		}
	}
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleRuns(w http.ResponseWriter, _ *http.Request) {
	type runJSON struct {
		At          time.Time `json:"at"`
		Status      string    `json:"status"`
		CoveragePct float64   `json:"coverage_pct"`
		PlanCount   int       `json:"plan_count"`
		Error       string    `json:"error,omitempty"`
	}

	var out []runJSON
	if s.cfg.Store != nil {
		runs, err := s.cfg.Store.RecentRuns(30)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, r := range runs {
			out = append(out, runJSON{
				At:          r.Summary.At,
				Status:      r.Status,
				CoveragePct: r.Summary.Totals.CoveragePct,
				PlanCount:   r.Summary.PlanCount,
				Error:       r.Error,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
