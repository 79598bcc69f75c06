package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noro_planning/pkg/core/assumption"
)

func TestDistributeQuarters_QuarterSumsMatchRoundedTarget(t *testing.T) {
	cases := []struct {
		name  string
		total int
		pct   [4]float64
	}{
		{"even split", 120, [4]float64{25, 25, 25, 25}},
		{"uneven split", 29, [4]float64{20, 25, 25, 30}},
		{"under 100", 47, [4]float64{10, 10, 10, 10}},
		{"over 100", 13, [4]float64{40, 40, 40, 40}},
		{"tiny", 1, [4]float64{22, 24, 26, 28}},
		{"zero", 0, [4]float64{25, 25, 25, 25}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			months := DistributeQuarters(tc.total, tc.pct)
			for q := 0; q < 4; q++ {
				want := int(math.Round(float64(tc.total) * tc.pct[q] / 100))
				got := months[q*3] + months[q*3+1] + months[q*3+2]
				assert.Equal(t, want, got, "quarter %d", q+1)

				// Remainder goes to the leading months of the quarter.
				assert.GreaterOrEqual(t, months[q*3], months[q*3+1])
				assert.GreaterOrEqual(t, months[q*3+1], months[q*3+2])
				assert.LessOrEqual(t, months[q*3]-months[q*3+2], 1)
			}
		})
	}
}

func TestDistributeQuarters_Layout(t *testing.T) {
	// Quarters: round(5.8)=6, round(7.25)=7, 7, round(8.7)=9
	got := DistributeQuarters(29, [4]float64{20, 25, 25, 30})
	assert.Equal(t, [12]int{2, 2, 2, 3, 2, 2, 3, 2, 2, 3, 3, 3}, got)
}

func TestAllocatePortals_GlobalAbsorbsRemainder(t *testing.T) {
	tiers := assumption.Defaults().Tiers // 1, 3, 10 portals per customer

	for _, total := range []int{0, 1, 7, 13, 400, 901, 12345} {
		got := AllocatePortals(total, tiers)
		assert.Equal(t, total, got.Start+got.Enterprise+got.Global, "total %d", total)
	}

	got := AllocatePortals(400, tiers)
	assert.Equal(t, assumption.PerTier[int]{Start: 29, Enterprise: 86, Global: 285}, got)
}

func TestSignings_FirstYearVerbatim(t *testing.T) {
	a := assumption.Defaults()

	got, err := Signings(a, 2026)
	require.NoError(t, err)
	assert.Equal(t, a.FirstYearNewCustomers, got)
}

func TestSignings_GrowthYear(t *testing.T) {
	a := assumption.Defaults()

	got, err := Signings(a, 2027)
	require.NoError(t, err)

	// 400 portals -> 29/86/285 portals -> 29/29/29 customers
	want := DistributeQuarters(29, a.Growth[2027].QuarterlyPct)
	assert.Equal(t, want, got.Start)
	assert.Equal(t, want, got.Enterprise)
	assert.Equal(t, want, got.Global)
}

func TestSignings_YearWithoutGrowthTarget(t *testing.T) {
	a := assumption.Defaults()
	delete(a.Growth, 2028)

	got, err := Signings(a, 2028)
	require.NoError(t, err)
	assert.Equal(t, assumption.PerTier[[12]int]{}, got)
}

func TestLagSchedule_ShiftsHistory(t *testing.T) {
	const lag = 3
	s := newLagSchedule(lag)

	signed := make([]int, 36)
	for i := range signed {
		signed[i] = (i*7 + 3) % 5
	}

	for i, n := range signed {
		installed := s.record(assumption.PerTier[int]{Start: n, Enterprise: 2 * n})
		want := 0
		if i >= lag {
			want = signed[i-lag]
		}
		assert.Equal(t, want, installed.Start, "month %d", i)
		assert.Equal(t, 2*want, installed.Enterprise, "month %d", i)
		assert.Equal(t, 0, installed.Global)
	}
}

func TestLagSchedule_ZeroLagInstallsImmediately(t *testing.T) {
	s := newLagSchedule(0)
	installed := s.record(assumption.PerTier[int]{Global: 4})
	assert.Equal(t, 4, installed.Global)
}

func TestActiveBase_ZeroChurnNoInstallsStaysConstant(t *testing.T) {
	b := newActiveBase(0)
	seed := assumption.PerTier[float64]{Start: 5, Enterprise: 2.75, Global: 1.125}
	b.counts = seed

	for m := 0; m < 36; m++ {
		assert.Equal(t, seed, b.step(assumption.PerTier[int]{}))
	}
}

func TestActiveBase_DecayThenInstall(t *testing.T) {
	b := newActiveBase(10)
	b.counts = assumption.PerTier[float64]{Start: 10}

	got := b.step(assumption.PerTier[int]{Start: 3})
	assert.InDelta(t, 10*0.9+3, got.Start, 1e-12)
}
