// Package fts provides a client for the OCHA Financial Tracking Service
// public API (api.hpc.tools).
package fts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ocha-dataviz/ghotrack/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 8 << 20 // 8 MB; the overview payload is well under 1 MB
	userAgent      = "ghotrack/1.0"
)

// ErrUnavailable indicates a network failure or non-success HTTP status.
var ErrUnavailable = errors.New("fts: endpoint unavailable")

// Client fetches public funding data from the FTS API.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// NewClient creates a client with the given per-request timeout.
// A zero or negative timeout falls back to the 30s default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{},
		timeout: timeout,
	}
}

// Overview holds the parsed plan overview keyed by trimmed short name.
type Overview struct {
	Plans   map[string]model.FundingRecord
	Skipped int // plans dropped for a missing or non-numeric funding figure
}

// FetchOverview fetches and parses the plan overview endpoint.
// Only plans flagged as part of the GHO are kept. Individual plans whose
// funding figure is missing or non-numeric are skipped and counted, not
// fatal; an overview with no usable GHO plans at all is an error.
func (c *Client) FetchOverview(ctx context.Context, url string) (*Overview, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw overviewResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("fts: parsing overview: %w", err)
	}
	if len(raw.Data.Plans) == 0 {
		return nil, fmt.Errorf("fts: overview contained no plans")
	}

	ov := &Overview{Plans: make(map[string]model.FundingRecord)}
	for _, p := range raw.Data.Plans {
		if !p.IsPartOfGHO {
			continue
		}

		key := strings.TrimSpace(p.ShortName)
		if key == "" {
			key = strings.TrimSpace(p.Name)
		}
		if key == "" {
			ov.Skipped++
			continue
		}

		if p.Funding == nil {
			ov.Skipped++
			continue
		}
		funding, ok := parseAmount(p.Funding.TotalFunding)
		if !ok {
			ov.Skipped++
			continue
		}

		rec := model.FundingRecord{
			PlanID:    p.ID,
			FullName:  p.Name,
			ShortName: key,
			Funding:   funding,
		}
		if p.PlanType != nil {
			rec.PlanType = p.PlanType.Code
		}
		if p.Requirements != nil {
			if full, ok := parseAmount(p.Requirements.RevisedRequirements); ok {
				rec.FullRequirements = full
			}
		}

		ov.Plans[key] = rec
	}

	if len(ov.Plans) == 0 {
		return nil, fmt.Errorf("fts: overview contained no usable GHO plans")
	}
	return ov, nil
}

// FetchPledges fetches the flow endpoint and returns the pledge total
// summed across all plans.
func (c *Client) FetchPledges(ctx context.Context, url string) (float64, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}

	var raw flowResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("fts: parsing flow data: %w", err)
	}

	var total float64
	for _, obj := range raw.Data.PledgeTotals.Objects {
		for _, item := range obj.SingleFundingObjects {
			if v, ok := parseAmount(item.TotalFunding); ok {
				total += v
			}
		}
	}
	return total, nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fts: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("fts: reading response: %w", err)
	}
	return body, nil
}
