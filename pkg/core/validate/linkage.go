package validate

import (
	"fmt"
	"math"

	"noro_planning/pkg/core/assumption"
	"noro_planning/pkg/core/projection"
)

// DefaultTolerance is the largest difference, in currency units, a check
// accepts.
const DefaultTolerance = 0.01

// =============================================================================
// CROSS-STATEMENT LINKAGE
// =============================================================================

// Check is one failed identity between two statements.
type Check struct {
	Name       string  `json:"name"`
	Year       int     `json:"year"`
	Month      int     `json:"month,omitempty"` // 0 for annual checks
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
}

// LinkageReport lists every identity that did not hold.
type LinkageReport struct {
	Unit      assumption.Unit `json:"unit"`
	Tolerance float64         `json:"tolerance"`
	Checked   int             `json:"checked"`
	Failures  []Check         `json:"failures,omitempty"`
	AllPassed bool            `json:"all_passed"`
}

func (r *LinkageReport) expect(name string, year, month int, expected, actual float64) {
	r.Checked++
	diff := actual - expected
	if math.Abs(diff) <= r.Tolerance {
		return
	}
	r.AllPassed = false
	r.Failures = append(r.Failures, Check{
		Name: name, Year: year, Month: month,
		Expected: expected, Actual: actual, Difference: diff,
	})
}

// CheckPlan projects a for unit and verifies that the P&L, the cash waterfall
// and the annual summary agree with each other across the whole horizon.
func CheckPlan(a *assumption.Assumptions, unit assumption.Unit, tolerance float64) (*LinkageReport, error) {
	e, err := projection.NewEngine(a)
	if err != nil {
		return nil, err
	}
	summaries, err := e.SummarizeAnnual(unit)
	if err != nil {
		return nil, err
	}

	r := &LinkageReport{Unit: unit, Tolerance: tolerance, AllPassed: true}
	closing := a.StartingCash
	for i, year := range e.Years() {
		p, err := e.ProjectYear(year, unit)
		if err != nil {
			return nil, err
		}
		checkYear(r, p, closing+a.Fundraising[year])
		checkAnnual(r, summaries[i], p)
		closing = p.Cash[len(p.Cash)-1].EndingCash
	}
	return r, nil
}

func checkYear(r *LinkageReport, p *projection.YearProjection, opening float64) {
	prevEnding := opening
	for m := range p.PL {
		pl, cash, md := p.PL[m], p.Cash[m], p.Months[m]
		y, mo := pl.Year, pl.Month

		// Revenue build-up
		r.expect("pl.arr = software revenue", y, mo, md.SoftwareRevenue, pl.ContractedARR)
		r.expect("pl.revenue = arr + vrr + hardware", y, mo, pl.ContractedARR+pl.ContractedVRR+pl.NewHardware, pl.TotalRevenue)
		r.expect("pl.gross_profit = revenue - cogs", y, mo, pl.TotalRevenue-pl.TotalCOGS, pl.GrossProfit)
		r.expect("pl.ebitda = gross_profit - opex", y, mo, pl.GrossProfit-pl.TotalOpex, pl.EBITDA)

		// P&L -> cash
		r.expect("cash.in = pl.revenue", y, mo, pl.TotalRevenue, cash.CashIn)
		r.expect("cash.out = pl.cogs + pl.opex", y, mo, pl.TotalCOGS+pl.TotalOpex, cash.CashOut)
		r.expect("cash.beginning = prior ending", y, mo, prevEnding, cash.BeginningCash)
		r.expect("cash.ending = beginning + net", y, mo, cash.BeginningCash+cash.NetCashFlow, cash.EndingCash)
		prevEnding = cash.EndingCash
	}
}

func checkAnnual(r *LinkageReport, s projection.AnnualSummary, p *projection.YearProjection) {
	var revenue, cogs, opex, ebitda float64
	for _, pl := range p.PL {
		revenue += pl.TotalRevenue
		cogs += pl.TotalCOGS
		opex += pl.TotalOpex
		ebitda += pl.EBITDA
	}
	r.expect("annual.revenue = sum of months", s.Year, 0, revenue, s.TotalRevenue)
	r.expect("annual.cogs = sum of months", s.Year, 0, cogs, s.TotalCOGS)
	r.expect("annual.opex = sum of months", s.Year, 0, opex, s.TotalOpex)
	r.expect("annual.ebitda = sum of months", s.Year, 0, ebitda, s.EBITDA)
	r.expect("annual.ending_cash = december ending", s.Year, 0, p.Cash[len(p.Cash)-1].EndingCash, s.EndingCash)
}

// String summarises the report on one line.
func (r *LinkageReport) String() string {
	if r.AllPassed {
		return fmt.Sprintf("%s: all %d checks passed", r.Unit, r.Checked)
	}
	return fmt.Sprintf("%s: %d of %d checks failed", r.Unit, len(r.Failures), r.Checked)
}
