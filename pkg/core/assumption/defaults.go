package assumption

// Defaults returns the baseline planning scenario. Every call allocates a new
// value, so resetting one editor's assumptions never affects another's.
func Defaults() *Assumptions {
	return &Assumptions{
		Currency:   "EUR",
		StartMonth: "2026-01",

		MonthlyChurnRatePct:   1.0,
		UpfrontPctHardware:    50,
		OnDeliveryPctHardware: 50,
		InstallLagMonths:      2,

		Tiers: PerTier[TierProfile]{
			Start:      TierProfile{PortalsPerCustomer: 1, OrganizersPerCustomer: 1},
			Enterprise: TierProfile{PortalsPerCustomer: 3, OrganizersPerCustomer: 5},
			Global:     TierProfile{PortalsPerCustomer: 10, OrganizersPerCustomer: 20},
		},

		BenefitsPct: 25,

		Primary: UnitAssumptions{
			Pricing: PerTier[TierPricing]{
				Start:      TierPricing{SoftwarePricePerPortalYear: 3600, HardwareMarginPerPortal: 2000},
				Enterprise: TierPricing{SoftwarePricePerPortalYear: 3000, HardwareMarginPerPortal: 1800},
				Global:     TierPricing{SoftwarePricePerPortalYear: 2400, HardwareMarginPerPortal: 1500},
			},
			BasePayrollMonthly: 60000,
			Opex: map[int]Opex{
				2026: {Marketing: 15000, GeneralAdmin: 8000, RAndD: 20000},
				2027: {Marketing: 25000, GeneralAdmin: 10000, RAndD: 30000},
				2028: {Marketing: 40000, GeneralAdmin: 12000, RAndD: 40000},
			},
		},

		Secondary: UnitAssumptions{
			Pricing: PerTier[TierPricing]{
				Start:      TierPricing{SoftwarePricePerPortalYear: 1200, HardwareMarginPerPortal: 800},
				Enterprise: TierPricing{SoftwarePricePerPortalYear: 1000, HardwareMarginPerPortal: 700},
				Global:     TierPricing{SoftwarePricePerPortalYear: 800, HardwareMarginPerPortal: 600},
			},
			BasePayrollMonthly: 20000,
			Opex: map[int]Opex{
				2026: {Marketing: 5000, GeneralAdmin: 3000, RAndD: 6000},
				2027: {Marketing: 8000, GeneralAdmin: 4000, RAndD: 8000},
				2028: {Marketing: 12000, GeneralAdmin: 5000, RAndD: 10000},
			},
			AvgMonthlyBookingValue: 150,
			UsageCOGSPct:           30,
		},

		StartingCash: 500000,
		Fundraising: map[int]float64{
			2026: 1000000,
			2027: 2000000,
			2028: 0,
		},
		LoanRepaymentMonthly: 5000,

		FirstYearNewCustomers: PerTier[[12]int]{
			Start:      [12]int{0, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 5},
			Enterprise: [12]int{0, 0, 1, 0, 1, 0, 1, 1, 0, 1, 1, 1},
			Global:     [12]int{0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0},
		},
		Growth: map[int]Growth{
			2027: {TotalNewPortals: 400, QuarterlyPct: [4]float64{20, 25, 25, 30}},
			2028: {TotalNewPortals: 900, QuarterlyPct: [4]float64{22, 24, 26, 28}},
		},
	}
}
