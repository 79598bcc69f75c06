package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noro_planning/pkg/core/assumption"
	"noro_planning/pkg/core/projection"
)

func TestCalculateYoY(t *testing.T) {
	assert.InDelta(t, 25.0, CalculateYoY(125, 100), 1e-9)
	assert.InDelta(t, -50.0, CalculateYoY(50, 100), 1e-9)
	assert.Equal(t, 0.0, CalculateYoY(0, 0))
	assert.True(t, math.IsInf(CalculateYoY(10, 0), 1))
}

func TestCalculateCAGR(t *testing.T) {
	assert.InDelta(t, 10.0, CalculateCAGR(100, 121, 2), 1e-9)
	assert.Equal(t, 0.0, CalculateCAGR(0, 121, 2))
	assert.Equal(t, 0.0, CalculateCAGR(100, 121, 0))
}

func TestRevenueGrowth(t *testing.T) {
	summaries := []projection.AnnualSummary{
		{Year: 2026, TotalRevenue: 100},
		{Year: 2027, TotalRevenue: 150},
		{Year: 2028, TotalRevenue: 225},
	}

	growth := RevenueGrowth(summaries)
	require.Len(t, growth, 2)
	assert.Equal(t, 2027, growth[0].CurrentYear)
	assert.InDelta(t, 50.0, growth[0].ChangePct, 1e-9)
	assert.InDelta(t, 75.0, growth[1].ChangeAbs, 1e-9)

	cagr, err := RevenueCAGR(summaries)
	require.NoError(t, err)
	assert.Equal(t, 2, cagr.Years)
	assert.InDelta(t, 50.0, cagr.CAGR, 1e-9)

	_, err = RevenueCAGR(summaries[:1])
	assert.Error(t, err)
}

func TestFirstNegativeCash(t *testing.T) {
	a := assumption.Defaults()
	a.Fundraising = map[int]float64{}
	a.StartingCash = 100000

	cash, err := projection.ProjectCash(a, 2026, assumption.UnitPrimary)
	require.NoError(t, err)
	first := FirstNegativeCash(cash)
	require.NotNil(t, first)
	assert.Less(t, first.EndingCash, 0.0)
	if first.Month > 1 {
		assert.GreaterOrEqual(t, cash[first.Month-2].EndingCash, 0.0)
	}

	assert.Nil(t, FirstNegativeCash([]projection.CashData{{EndingCash: 1}, {EndingCash: 0}}))
}

func TestCheckPlan_DefaultsTieOut(t *testing.T) {
	for _, unit := range assumption.AllUnits() {
		r, err := CheckPlan(assumption.Defaults(), unit, DefaultTolerance)
		require.NoError(t, err)
		assert.True(t, r.AllPassed, "%v", r.Failures)
		assert.Empty(t, r.Failures)
		// 8 monthly identities per month, 5 annual ones per year
		assert.Equal(t, 3*(12*8+5), r.Checked)
		assert.Contains(t, r.String(), "checks passed")
	}
}

func TestCheckPlan_Errors(t *testing.T) {
	a := assumption.Defaults()
	a.Tiers.Start.PortalsPerCustomer = 0
	_, err := CheckPlan(a, assumption.UnitPrimary, DefaultTolerance)
	assert.ErrorIs(t, err, assumption.ErrInvalid)

	_, err = CheckPlan(assumption.Defaults(), assumption.Unit("retail"), DefaultTolerance)
	assert.ErrorIs(t, err, projection.ErrUnknownUnit)
}

func TestLinkageReport_RecordsFailures(t *testing.T) {
	r := &LinkageReport{Unit: assumption.UnitPrimary, Tolerance: 0.01, AllPassed: true}
	r.expect("close enough", 2026, 1, 100, 100.005)
	r.expect("off", 2026, 2, 100, 90)

	assert.False(t, r.AllPassed)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, "off", r.Failures[0].Name)
	assert.InDelta(t, -10.0, r.Failures[0].Difference, 1e-9)
	assert.Equal(t, "primary: 1 of 2 checks failed", r.String())
}
