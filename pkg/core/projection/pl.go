package projection

import (
	"fmt"

	"noro_planning/pkg/core/assumption"
)

// hardwareCostRatio is the share of an installed portal's hardware margin
// booked as COGS. It does not follow the upfront/on-delivery split.
const hardwareCostRatio = 0.6

// RollUpPL turns one month of customer and revenue data into a P&L row.
// It depends only on its arguments.
func RollUpPL(a *assumption.Assumptions, unit assumption.Unit, md MonthlyData) (PLData, error) {
	ua, err := a.ForUnit(unit)
	if err != nil {
		return PLData{}, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	return rollUpPL(a, unit, ua, md), nil
}

func rollUpPL(a *assumption.Assumptions, unit assumption.Unit, ua assumption.UnitAssumptions, md MonthlyData) PLData {
	pl := PLData{
		Year:          md.Year,
		Month:         md.Month,
		ContractedARR: md.SoftwareRevenue,
		ContractedVRR: md.UsageRevenue,
		NewHardware:   md.HardwareCashIn,
		TotalRevenue:  md.TotalRevenue,
	}

	// COGS
	for _, t := range assumption.AllTiers() {
		installedPortals := md.Installed.Get(t) * a.Tiers.Get(t).PortalsPerCustomer
		pl.HardwareCOGS += float64(installedPortals) * ua.Pricing.Get(t).HardwareMarginPerPortal * hardwareCostRatio
	}
	if unit == assumption.UnitSecondary {
		pl.UsageCOGS = md.UsageRevenue * ua.UsageCOGSPct / 100
	}
	pl.TotalCOGS = pl.HardwareCOGS + pl.UsageCOGS
	pl.GrossProfit = pl.TotalRevenue - pl.TotalCOGS

	// Opex: flat per month within a year
	opex := ua.Opex[md.Year]
	pl.Payroll = ua.BasePayrollMonthly * (1 + a.BenefitsPct/100)
	pl.Marketing = opex.Marketing
	pl.RAndD = opex.RAndD
	pl.GeneralAdmin = opex.GeneralAdmin
	pl.TotalOpex = pl.Payroll + pl.Marketing + pl.RAndD + pl.GeneralAdmin

	pl.EBITDA = pl.GrossProfit - pl.TotalOpex
	return pl
}
