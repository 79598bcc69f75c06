// Package projection simulates customer cohorts, revenue, P&L and cash month
// by month over the three-year planning horizon.
//
// Pipeline per month: signings -> installs (after the install lag) -> active
// base (churn decay) -> revenue and hardware cash -> P&L -> cash waterfall.
// Each year starts from the closing state of the year before it, so every
// request runs the simulation forward from the first year. Nothing is cached.
package projection

import (
	"fmt"
	"slices"

	"noro_planning/pkg/core/assumption"
)

// Engine runs projections over one validated, private copy of the assumptions.
type Engine struct {
	assumptions *assumption.Assumptions
	years       []int
}

// NewEngine validates a and takes a deep copy of it. Invalid configurations,
// such as a tier without portals, are rejected here and never reach the
// simulation.
func NewEngine(a *assumption.Assumptions) (*Engine, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil assumptions", assumption.ErrInvalid)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	c := a.Clone()
	years, err := c.Years()
	if err != nil {
		return nil, err
	}
	return &Engine{assumptions: c, years: years}, nil
}

// Years returns the simulated calendar years.
func (e *Engine) Years() []int {
	return slices.Clone(e.years)
}

// ProjectYear returns the monthly, P&L and cash series of one year.
func (e *Engine) ProjectYear(year int, unit assumption.Unit) (*YearProjection, error) {
	run, err := e.simulate(unit, year)
	if err != nil {
		return nil, err
	}
	return &run[len(run)-1], nil
}

// ProjectMonths returns the twelve MonthlyData rows of year.
func (e *Engine) ProjectMonths(year int, unit assumption.Unit) ([]MonthlyData, error) {
	p, err := e.ProjectYear(year, unit)
	if err != nil {
		return nil, err
	}
	return p.Months, nil
}

// ProjectPL returns the twelve PLData rows of year.
func (e *Engine) ProjectPL(year int, unit assumption.Unit) ([]PLData, error) {
	p, err := e.ProjectYear(year, unit)
	if err != nil {
		return nil, err
	}
	return p.PL, nil
}

// ProjectCash returns the twelve CashData rows of year.
func (e *Engine) ProjectCash(year int, unit assumption.Unit) ([]CashData, error) {
	p, err := e.ProjectYear(year, unit)
	if err != nil {
		return nil, err
	}
	return p.Cash, nil
}

// SummarizeAnnual returns one AnnualSummary per simulated year.
func (e *Engine) SummarizeAnnual(unit assumption.Unit) ([]AnnualSummary, error) {
	run, err := e.simulate(unit, e.years[len(e.years)-1])
	if err != nil {
		return nil, err
	}
	out := make([]AnnualSummary, len(run))
	for i, p := range run {
		out[i] = Aggregate(p.Year, p.PL, p.Cash)
	}
	return out, nil
}

// simulate runs forward from the first year through the requested year.
func (e *Engine) simulate(unit assumption.Unit, through int) ([]YearProjection, error) {
	a := e.assumptions
	ua, err := a.ForUnit(unit)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	if through < e.years[0] || through > e.years[len(e.years)-1] {
		return nil, fmt.Errorf("%w: %d not in %d-%d", ErrYearOutOfRange, through, e.years[0], e.years[len(e.years)-1])
	}

	lag := newLagSchedule(a.InstallLagMonths)
	base := newActiveBase(a.MonthlyChurnRatePct)
	closingCash := a.StartingCash

	run := make([]YearProjection, 0, len(e.years))
	for _, year := range e.years {
		if year > through {
			break
		}
		signings, err := Signings(a, year)
		if err != nil {
			return nil, err
		}

		months := make([]MonthlyData, 12)
		pl := make([]PLData, 12)
		for m := range 12 {
			var signed assumption.PerTier[int]
			for _, t := range assumption.AllTiers() {
				signed.Set(t, signings.Get(t)[m])
			}
			installed := lag.record(signed)
			active := base.step(installed)

			months[m] = recognizeMonth(a, unit, ua, year, m+1, signed, installed, active)
			pl[m] = rollUpPL(a, unit, ua, months[m])
		}

		// Fundraising lands at the start of the year only.
		opening := closingCash + a.Fundraising[year]
		cash := runWaterfall(opening, a.LoanRepaymentMonthly, pl)
		closingCash = cash[len(cash)-1].EndingCash

		run = append(run, YearProjection{Year: year, Months: months, PL: pl, Cash: cash})
	}
	return run, nil
}

// -----------------------------------------------------------------------------
// Function surface
// -----------------------------------------------------------------------------

// ProjectMonths validates a and returns the MonthlyData rows of year.
func ProjectMonths(a *assumption.Assumptions, year int, unit assumption.Unit) ([]MonthlyData, error) {
	e, err := NewEngine(a)
	if err != nil {
		return nil, err
	}
	return e.ProjectMonths(year, unit)
}

// ProjectPL validates a and returns the PLData rows of year.
func ProjectPL(a *assumption.Assumptions, year int, unit assumption.Unit) ([]PLData, error) {
	e, err := NewEngine(a)
	if err != nil {
		return nil, err
	}
	return e.ProjectPL(year, unit)
}

// ProjectCash validates a and returns the CashData rows of year.
func ProjectCash(a *assumption.Assumptions, year int, unit assumption.Unit) ([]CashData, error) {
	e, err := NewEngine(a)
	if err != nil {
		return nil, err
	}
	return e.ProjectCash(year, unit)
}

// SummarizeAnnual validates a and returns one summary per simulated year.
func SummarizeAnnual(a *assumption.Assumptions, unit assumption.Unit) ([]AnnualSummary, error) {
	e, err := NewEngine(a)
	if err != nil {
		return nil, err
	}
	return e.SummarizeAnnual(unit)
}
