package projection

import "noro_planning/pkg/core/assumption"

// recognizeMonth derives portal counts, revenue and hardware cash for one
// month from its signings, installs and active base.
//
// Software revenue is straight-line: the active portals of a tier earn one
// twelfth of the tier's annual price each month. Hardware is cash-basis: the
// upfront share is collected on signed portals and the on-delivery share on
// installed portals.
func recognizeMonth(
	a *assumption.Assumptions,
	unit assumption.Unit,
	ua assumption.UnitAssumptions,
	year, month int,
	signed, installed assumption.PerTier[int],
	active assumption.PerTier[float64],
) MonthlyData {
	md := MonthlyData{
		Year:      year,
		Month:     month,
		Signed:    signed,
		Installed: installed,
		Active:    active,
	}

	var signedMarginValue, installedMarginValue float64
	for _, t := range assumption.AllTiers() {
		ppc := a.Tiers.Get(t).PortalsPerCustomer
		price := ua.Pricing.Get(t)

		activePortals := active.Get(t) * float64(ppc)
		md.TotalActiveCustomers += active.Get(t)
		md.TotalActivePortals += activePortals
		md.SoftwareRevenue += activePortals * (price.SoftwarePricePerPortalYear / 12)

		signedPortals := signed.Get(t) * ppc
		installedPortals := installed.Get(t) * ppc
		md.PortalsSigned += signedPortals
		md.PortalsInstalled += installedPortals
		signedMarginValue += float64(signedPortals) * price.HardwareMarginPerPortal
		installedMarginValue += float64(installedPortals) * price.HardwareMarginPerPortal
	}

	if unit == assumption.UnitSecondary {
		md.UsageRevenue = md.TotalActiveCustomers * ua.AvgMonthlyBookingValue
	}

	md.HardwareUpfront = signedMarginValue * a.UpfrontPctHardware / 100
	md.HardwareOnDelivery = installedMarginValue * a.OnDeliveryPctHardware / 100
	md.HardwareCashIn = md.HardwareUpfront + md.HardwareOnDelivery
	md.TotalRevenue = md.SoftwareRevenue + md.UsageRevenue + md.HardwareCashIn
	return md
}
