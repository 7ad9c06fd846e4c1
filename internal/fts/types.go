package fts

import (
	"encoding/json"
	"strconv"
	"strings"
)

// overviewResponse is the envelope of the plan overview endpoint.
type overviewResponse struct {
	Data struct {
		Plans []rawPlan `json:"plans"`
	} `json:"data"`
}

// rawPlan is one plan as returned by /v2/public/plan/overview/<year>.
type rawPlan struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	ShortName    string           `json:"shortName"`
	IsPartOfGHO  bool             `json:"isPartOfGHO"`
	PlanType     *rawPlanType     `json:"planType,omitempty"`
	Funding      *rawFunding      `json:"funding,omitempty"`
	Requirements *rawRequirements `json:"requirements,omitempty"`
}

type rawPlanType struct {
	Code string `json:"code"`
}

type rawFunding struct {
	TotalFunding json.RawMessage `json:"totalFunding"`
	Progress     json.RawMessage `json:"progress"`
}

type rawRequirements struct {
	RevisedRequirements json.RawMessage `json:"revisedRequirements"`
}

// flowResponse is the envelope of the flow endpoint, reduced to the pledge
// totals this tool consumes.
type flowResponse struct {
	Data struct {
		PledgeTotals struct {
			Objects []struct {
				SingleFundingObjects []struct {
					Name         string          `json:"name"`
					TotalFunding json.RawMessage `json:"totalFunding"`
				} `json:"singleFundingObjects"`
			} `json:"objects"`
		} `json:"pledgeTotals"`
	} `json:"data"`
}

// parseAmount parses a monetary figure that the API may encode as a
// number or a numeric string. Returns false for null, missing, or
// non-numeric values.
func parseAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}

	return 0, false
}
