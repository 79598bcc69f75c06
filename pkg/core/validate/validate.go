// Package validate derives growth metrics from a projection and checks that
// its statements tie out.
package validate

import (
	"errors"
	"math"

	"noro_planning/pkg/core/projection"
)

// =============================================================================
// YEAR-OVER-YEAR (YoY)
// =============================================================================

// YoYResult is the change of one annual figure against the year before.
type YoYResult struct {
	CurrentYear  int     `json:"current_year"`
	PriorYear    int     `json:"prior_year"`
	CurrentValue float64 `json:"current_value"`
	PriorValue   float64 `json:"prior_value"`
	ChangeAbs    float64 `json:"change_abs"`
	ChangePct    float64 `json:"change_pct"`
	Label        string  `json:"label"`
}

// CalculateYoY returns (current - prior) / prior * 100. Growth from zero is
// +Inf, zero to zero is 0.
func CalculateYoY(current, prior float64) float64 {
	if prior == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (current - prior) / prior * 100
}

// RevenueGrowth returns one YoYResult per year after the first.
func RevenueGrowth(summaries []projection.AnnualSummary) []YoYResult {
	var out []YoYResult
	for i := 1; i < len(summaries); i++ {
		cur, prior := summaries[i], summaries[i-1]
		out = append(out, YoYResult{
			CurrentYear:  cur.Year,
			PriorYear:    prior.Year,
			CurrentValue: cur.TotalRevenue,
			PriorValue:   prior.TotalRevenue,
			ChangeAbs:    cur.TotalRevenue - prior.TotalRevenue,
			ChangePct:    CalculateYoY(cur.TotalRevenue, prior.TotalRevenue),
			Label:        "Total revenue",
		})
	}
	return out
}

// =============================================================================
// CAGR (Compound Annual Growth Rate)
// =============================================================================

// CAGRResult is the compound growth between the first and last year.
type CAGRResult struct {
	StartYear  int     `json:"start_year"`
	EndYear    int     `json:"end_year"`
	StartValue float64 `json:"start_value"`
	EndValue   float64 `json:"end_value"`
	Years      int     `json:"years"`
	CAGR       float64 `json:"cagr"` // As percentage
}

// CalculateCAGR returns ((end / start) ^ (1 / years) - 1) * 100, or 0 when
// start is not positive.
func CalculateCAGR(startValue, endValue float64, years int) float64 {
	if startValue <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(endValue/startValue, 1.0/float64(years)) - 1) * 100
}

// RevenueCAGR compounds total revenue from the first to the last summary.
func RevenueCAGR(summaries []projection.AnnualSummary) (*CAGRResult, error) {
	if len(summaries) < 2 {
		return nil, errors.New("need at least two years for CAGR")
	}
	first, last := summaries[0], summaries[len(summaries)-1]
	years := last.Year - first.Year
	return &CAGRResult{
		StartYear:  first.Year,
		EndYear:    last.Year,
		StartValue: first.TotalRevenue,
		EndValue:   last.TotalRevenue,
		Years:      years,
		CAGR:       CalculateCAGR(first.TotalRevenue, last.TotalRevenue, years),
	}, nil
}

// =============================================================================
// CASH RUNWAY
// =============================================================================

// FirstNegativeCash returns the first month whose closing balance is below
// zero, or nil when the plan never runs out of cash.
func FirstNegativeCash(cash []projection.CashData) *projection.CashData {
	for i := range cash {
		if cash[i].EndingCash < 0 {
			c := cash[i]
			return &c
		}
	}
	return nil
}
