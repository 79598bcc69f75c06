package projection

import "noro_planning/pkg/core/assumption"

// activeBase carries each tier's active customer count from month to month.
// Counts stay fractional; only presentation rounds them.
type activeBase struct {
	retention float64 // 1 - monthly churn
	counts    assumption.PerTier[float64]
}

func newActiveBase(churnPct float64) *activeBase {
	return &activeBase{retention: 1 - churnPct/100}
}

// step decays the closing count of the previous month and adds this month's
// installs: active' = active * (1 - churn) + installed.
func (b *activeBase) step(installed assumption.PerTier[int]) assumption.PerTier[float64] {
	for _, t := range assumption.AllTiers() {
		b.counts.Set(t, b.counts.Get(t)*b.retention+float64(installed.Get(t)))
	}
	return b.counts
}
