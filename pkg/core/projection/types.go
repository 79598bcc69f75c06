package projection

import (
	"errors"

	"noro_planning/pkg/core/assumption"
)

var (
	// ErrYearOutOfRange is returned for a year outside the simulated horizon.
	ErrYearOutOfRange = errors.New("year outside projection horizon")
	// ErrUnknownUnit is returned for a business unit the model does not know.
	ErrUnknownUnit = errors.New("unknown business unit")
)

// MonthlyData is the customer and revenue state of one month.
type MonthlyData struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12

	Signed    assumption.PerTier[int]     `json:"signed"`
	Installed assumption.PerTier[int]     `json:"installed"`
	Active    assumption.PerTier[float64] `json:"active"` // Fractional after churn decay

	TotalActiveCustomers float64 `json:"total_active_customers"`
	TotalActivePortals   float64 `json:"total_active_portals"`
	PortalsSigned        int     `json:"portals_signed"`
	PortalsInstalled     int     `json:"portals_installed"`

	SoftwareRevenue    float64 `json:"software_revenue"`
	UsageRevenue       float64 `json:"usage_revenue"`
	HardwareUpfront    float64 `json:"hardware_upfront"`
	HardwareOnDelivery float64 `json:"hardware_on_delivery"`
	HardwareCashIn     float64 `json:"hardware_cash_in"`
	TotalRevenue       float64 `json:"total_revenue"`
}

// PLData is the profit and loss statement of one month.
type PLData struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	ContractedARR float64 `json:"contracted_arr"`
	ContractedVRR float64 `json:"contracted_vrr"`
	NewHardware   float64 `json:"new_hardware"`
	TotalRevenue  float64 `json:"total_revenue"`

	HardwareCOGS float64 `json:"hardware_cogs"`
	UsageCOGS    float64 `json:"usage_cogs"`
	TotalCOGS    float64 `json:"total_cogs"`
	GrossProfit  float64 `json:"gross_profit"`

	Payroll      float64 `json:"payroll"`
	Marketing    float64 `json:"marketing"`
	RAndD        float64 `json:"r_and_d"`
	GeneralAdmin float64 `json:"general_admin"`
	TotalOpex    float64 `json:"total_opex"`

	EBITDA float64 `json:"ebitda"`
}

// CashData is one step of the cash waterfall.
type CashData struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	BeginningCash float64 `json:"beginning_cash"`
	CashIn        float64 `json:"cash_in"`
	CashOut       float64 `json:"cash_out"`
	LoanRepayment float64 `json:"loan_repayment"`
	NetCashFlow   float64 `json:"net_cash_flow"`
	EndingCash    float64 `json:"ending_cash"`
}

// AnnualSummary sums a year's P&L and carries its closing cash.
type AnnualSummary struct {
	Year int `json:"year"`

	ContractedARR float64 `json:"contracted_arr"`
	ContractedVRR float64 `json:"contracted_vrr"`
	NewHardware   float64 `json:"new_hardware"`
	TotalRevenue  float64 `json:"total_revenue"`

	HardwareCOGS float64 `json:"hardware_cogs"`
	UsageCOGS    float64 `json:"usage_cogs"`
	TotalCOGS    float64 `json:"total_cogs"`
	GrossProfit  float64 `json:"gross_profit"`

	Payroll      float64 `json:"payroll"`
	Marketing    float64 `json:"marketing"`
	RAndD        float64 `json:"r_and_d"`
	GeneralAdmin float64 `json:"general_admin"`
	TotalOpex    float64 `json:"total_opex"`

	EBITDA     float64 `json:"ebitda"`
	EndingCash float64 `json:"ending_cash"`
}

// YearProjection bundles the three monthly series of one year.
type YearProjection struct {
	Year   int           `json:"year"`
	Months []MonthlyData `json:"months"`
	PL     []PLData      `json:"pl"`
	Cash   []CashData    `json:"cash"`
}
