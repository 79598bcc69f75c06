package projection

import (
	"math"

	"noro_planning/pkg/core/assumption"
)

// -----------------------------------------------------------------------------
// Acquisition
// -----------------------------------------------------------------------------

// Signings returns the new customers signed in each month of year, per tier.
// The first year is taken verbatim from the assumptions; later years are
// derived from that year's growth target.
func Signings(a *assumption.Assumptions, year int) (assumption.PerTier[[12]int], error) {
	first, err := a.FirstYear()
	if err != nil {
		return assumption.PerTier[[12]int]{}, err
	}
	if year == first {
		return a.FirstYearNewCustomers, nil
	}

	growth := a.Growth[year]
	portals := AllocatePortals(growth.TotalNewPortals, a.Tiers)

	var out assumption.PerTier[[12]int]
	for _, t := range assumption.AllTiers() {
		ppc := a.Tiers.Get(t).PortalsPerCustomer
		customers := int(math.Round(float64(portals.Get(t)) / float64(ppc)))
		// A negative global remainder can only come from rounding the other
		// tiers up; it never represents customers.
		customers = max(customers, 0)
		out.Set(t, DistributeQuarters(customers, growth.QuarterlyPct))
	}
	return out, nil
}

// AllocatePortals splits an annual new-portal target across tiers in
// proportion to each tier's portals per customer. The global tier takes the
// rounding remainder so the three allocations add up to total exactly.
func AllocatePortals(total int, tiers assumption.PerTier[assumption.TierProfile]) assumption.PerTier[int] {
	sum := 0
	for _, t := range assumption.AllTiers() {
		sum += tiers.Get(t).PortalsPerCustomer
	}

	var out assumption.PerTier[int]
	if sum <= 0 {
		return out
	}
	allocated := 0
	for _, t := range []assumption.Tier{assumption.TierStart, assumption.TierEnterprise} {
		share := float64(tiers.Get(t).PortalsPerCustomer) / float64(sum)
		n := int(math.Round(float64(total) * share))
		out.Set(t, n)
		allocated += n
	}
	out.Global = total - allocated
	return out
}

// DistributeQuarters spreads an annual customer count over twelve months.
// Each quarter receives round(total * pct / 100); the quarter's floor(q/3)
// goes to every month and the remainder to its first months, so the three
// months always add up to the quarter's target.
func DistributeQuarters(total int, quarterlyPct [4]float64) [12]int {
	var months [12]int
	for q, pct := range quarterlyPct {
		target := max(int(math.Round(float64(total)*pct/100)), 0)
		base, rem := target/3, target%3
		for i := 0; i < 3; i++ {
			months[q*3+i] = base
			if i < rem {
				months[q*3+i]++
			}
		}
	}
	return months
}

// -----------------------------------------------------------------------------
// Installation lag
// -----------------------------------------------------------------------------

// lagSchedule keeps an append-only signing history per tier across the whole
// horizon. A signing in month m is installed in month m+lag.
type lagSchedule struct {
	lag     int
	history map[assumption.Tier][]int
}

func newLagSchedule(lag int) *lagSchedule {
	return &lagSchedule{lag: lag, history: make(map[assumption.Tier][]int)}
}

// record appends this month's signings and returns this month's installs.
func (s *lagSchedule) record(signed assumption.PerTier[int]) assumption.PerTier[int] {
	var installed assumption.PerTier[int]
	for _, t := range assumption.AllTiers() {
		s.history[t] = append(s.history[t], signed.Get(t))
		idx := len(s.history[t]) - 1 - s.lag
		if idx >= 0 {
			installed.Set(t, s.history[t][idx])
		}
	}
	return installed
}
