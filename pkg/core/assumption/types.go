// Package assumption holds the planning model's input parameters.
// An Assumptions value is treated as immutable by every consumer; callers that
// want to edit one work on a Clone.
package assumption

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// StartMonthLayout is the layout of Assumptions.StartMonth.
const StartMonthLayout = "2006-01"

// HorizonYears is the number of calendar years the model simulates.
const HorizonYears = 3

// =============================================================================
// TIERS & UNITS
// =============================================================================

// Tier is a customer class.
type Tier string

const (
	TierStart      Tier = "start"
	TierEnterprise Tier = "enterprise"
	TierGlobal     Tier = "global"
)

// AllTiers returns the tiers in allocation order. The last tier absorbs
// rounding remainders when annual portal targets are split.
func AllTiers() []Tier {
	return []Tier{TierStart, TierEnterprise, TierGlobal}
}

// Unit selects one of the two parallel per-unit parameter sets.
type Unit string

const (
	UnitPrimary   Unit = "primary"
	UnitSecondary Unit = "secondary"
)

// AllUnits returns both business units.
func AllUnits() []Unit {
	return []Unit{UnitPrimary, UnitSecondary}
}

// ParseUnit maps a user supplied name onto a Unit.
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitPrimary:
		return UnitPrimary, nil
	case UnitSecondary:
		return UnitSecondary, nil
	}
	return "", fmt.Errorf("unknown business unit %q", s)
}

// PerTier holds one value per customer tier.
type PerTier[T any] struct {
	Start      T `json:"start"`
	Enterprise T `json:"enterprise"`
	Global     T `json:"global"`
}

// Get returns the value for t. Unknown tiers yield the zero value.
func (p PerTier[T]) Get(t Tier) T {
	switch t {
	case TierStart:
		return p.Start
	case TierEnterprise:
		return p.Enterprise
	case TierGlobal:
		return p.Global
	}
	var zero T
	return zero
}

// Set stores v for t.
func (p *PerTier[T]) Set(t Tier, v T) {
	switch t {
	case TierStart:
		p.Start = v
	case TierEnterprise:
		p.Enterprise = v
	case TierGlobal:
		p.Global = v
	}
}

// =============================================================================
// PARAMETER GROUPS
// =============================================================================

// TierProfile describes what one customer of a tier buys.
type TierProfile struct {
	PortalsPerCustomer    int `json:"portals_per_customer"`
	OrganizersPerCustomer int `json:"organizers_per_customer"`
}

// TierPricing is the per-portal price sheet of a tier within a unit.
type TierPricing struct {
	SoftwarePricePerPortalYear float64 `json:"software_price_per_portal_year"`
	HardwareMarginPerPortal    float64 `json:"hardware_margin_per_portal"`
}

// Opex holds flat monthly operating expense lines for one year.
type Opex struct {
	Marketing    float64 `json:"marketing"`
	GeneralAdmin float64 `json:"general_admin"`
	RAndD        float64 `json:"r_and_d"`
}

// UnitAssumptions is the parameter set that differs between business units.
type UnitAssumptions struct {
	Pricing            PerTier[TierPricing] `json:"pricing"`
	BasePayrollMonthly float64              `json:"base_payroll_monthly"`
	Opex               map[int]Opex         `json:"opex"` // Year -> monthly figures

	// Usage revenue is only recognized for the secondary unit.
	AvgMonthlyBookingValue float64 `json:"avg_monthly_booking_value"`
	UsageCOGSPct           float64 `json:"usage_cogs_pct"`
}

// Growth is the new-portal target of a year after the first.
type Growth struct {
	TotalNewPortals int        `json:"total_new_portals"`
	QuarterlyPct    [4]float64 `json:"quarterly_pct"` // Not required to sum to 100
}

// =============================================================================
// ASSUMPTIONS
// =============================================================================

// Assumptions is the complete input of the planning model.
type Assumptions struct {
	Currency   string `json:"currency"`
	StartMonth string `json:"start_month"` // January of the first year, "2026-01"

	MonthlyChurnRatePct   float64 `json:"monthly_churn_rate_pct"`
	UpfrontPctHardware    float64 `json:"upfront_pct_hardware"`
	OnDeliveryPctHardware float64 `json:"on_delivery_pct_hardware"`
	InstallLagMonths      int     `json:"install_lag_months"`

	Tiers PerTier[TierProfile] `json:"tiers"`

	// People
	BenefitsPct float64 `json:"benefits_pct"`

	Primary   UnitAssumptions `json:"primary"`
	Secondary UnitAssumptions `json:"secondary"`

	// Financing
	StartingCash         float64         `json:"starting_cash"`
	Fundraising          map[int]float64 `json:"fundraising"` // Year -> inflow landing in January
	LoanRepaymentMonthly float64         `json:"loan_repayment_monthly"`

	// Acquisition
	FirstYearNewCustomers PerTier[[12]int] `json:"first_year_new_customers"`
	Growth                map[int]Growth   `json:"growth"` // Year -> target, years after the first
}

// ForUnit returns the parameter set of u.
func (a *Assumptions) ForUnit(u Unit) (UnitAssumptions, error) {
	switch u {
	case UnitPrimary:
		return a.Primary, nil
	case UnitSecondary:
		return a.Secondary, nil
	}
	return UnitAssumptions{}, fmt.Errorf("unknown business unit %q", u)
}

// FirstYear is the calendar year of StartMonth.
func (a *Assumptions) FirstYear() (int, error) {
	t, err := time.Parse(StartMonthLayout, a.StartMonth)
	if err != nil {
		return 0, fmt.Errorf("invalid start month %q: %w", a.StartMonth, err)
	}
	return t.Year(), nil
}

// Years returns the simulated calendar years in order.
func (a *Assumptions) Years() ([]int, error) {
	first, err := a.FirstYear()
	if err != nil {
		return nil, err
	}
	years := make([]int, HorizonYears)
	for i := range years {
		years[i] = first + i
	}
	return years, nil
}

// Clone returns a deep copy; edits to the copy never reach a.
func (a *Assumptions) Clone() *Assumptions {
	c := *a
	c.Primary = a.Primary.clone()
	c.Secondary = a.Secondary.clone()
	c.Fundraising = maps.Clone(a.Fundraising)
	c.Growth = maps.Clone(a.Growth)
	return &c
}

func (u UnitAssumptions) clone() UnitAssumptions {
	u.Opex = maps.Clone(u.Opex)
	return u
}
