package assumption

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalid wraps every configuration problem reported by Validate.
var ErrInvalid = errors.New("invalid assumptions")

// Validate rejects configurations the projection cannot run on. Percentage
// splits that do not add up to 100 are accepted as entered.
func (a *Assumptions) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := a.FirstYear(); err != nil {
		errs = append(errs, err)
	} else if !strings.HasSuffix(a.StartMonth, "-01") {
		add("start month %q must be a January: plans run in calendar years", a.StartMonth)
	}
	if a.MonthlyChurnRatePct < 0 || a.MonthlyChurnRatePct > 100 {
		add("monthly churn rate must be within [0, 100], got %v", a.MonthlyChurnRatePct)
	}
	if a.InstallLagMonths < 0 {
		add("install lag must not be negative, got %d", a.InstallLagMonths)
	}
	if a.UpfrontPctHardware < 0 || a.OnDeliveryPctHardware < 0 {
		add("hardware cash split percentages must not be negative")
	}

	for _, t := range AllTiers() {
		if ppc := a.Tiers.Get(t).PortalsPerCustomer; ppc <= 0 {
			add("tier %s: portals per customer must be positive, got %d", t, ppc)
		}
		for m, n := range a.FirstYearNewCustomers.Get(t) {
			if n < 0 {
				add("tier %s: first-year new customers in month %d is negative", t, m+1)
			}
		}
	}

	for _, year := range slices.Sorted(maps.Keys(a.Growth)) {
		g := a.Growth[year]
		if g.TotalNewPortals < 0 {
			add("growth %d: total new portals must not be negative", year)
		}
		for q, pct := range g.QuarterlyPct {
			if pct < 0 {
				add("growth %d: Q%d percentage must not be negative", year, q+1)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
