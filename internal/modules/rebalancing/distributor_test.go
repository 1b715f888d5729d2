package rebalancing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target(v float64) *float64 { return &v }

func TestDistribute_ExistingOnly_SpecScenario(t *testing.T) {
	// A is 200 under target, B is 200 over: a straight swap
	items := []Item{
		{Name: "A", CurrentValue: 1000, TargetValue: target(1200)},
		{Name: "B", CurrentValue: 800, TargetValue: target(600)},
	}

	result := Distribute(items, ModeExistingOnly, 0)

	require.Len(t, result.Actions, 2)
	assert.InDelta(t, 200, result.Actions[0].Action, 0.01)
	assert.InDelta(t, -200, result.Actions[1].Action, 0.01)
	assert.InDelta(t, 1200, result.Actions[0].ValueAfter, 0.01)
	assert.InDelta(t, 600, result.Actions[1].ValueAfter, 0.01)
}

func TestDistribute_ExistingOnly_LimitedBySmallerSide(t *testing.T) {
	// Buys want 300 but only 100 can be freed by selling
	items := []Item{
		{Name: "A", CurrentValue: 100, TargetValue: target(400)}, // gap +300
		{Name: "B", CurrentValue: 700, TargetValue: target(600)}, // gap -100
		{Name: "C", CurrentValue: 200, TargetValue: target(200)}, // at target
	}

	result := Distribute(items, ModeExistingOnly, 0)

	assert.InDelta(t, 100, result.Actions[0].Action, 0.01)
	assert.InDelta(t, -100, result.Actions[1].Action, 0.01)
	assert.Equal(t, 0.0, result.Actions[2].Action)
}

// Conservation: total buys always equal total sells in existing-only mode.
func TestDistribute_ExistingOnly_Conservation(t *testing.T) {
	cases := [][]Item{
		{
			{Name: "A", CurrentValue: 1000, TargetValue: target(1500)},
			{Name: "B", CurrentValue: 2000, TargetValue: target(1600)},
			{Name: "C", CurrentValue: 500, TargetValue: target(400)},
		},
		{
			{Name: "A", CurrentValue: 10, TargetValue: target(90)},
			{Name: "B", CurrentValue: 90, TargetValue: target(10)},
			{Name: "C", CurrentValue: 50, TargetValue: target(51)},
			{Name: "D", CurrentValue: 33.33, TargetValue: target(32.11)},
		},
	}

	for _, items := range cases {
		result := Distribute(items, ModeExistingOnly, 0)

		net := 0.0
		for _, a := range result.Actions {
			net += a.Action
		}
		assert.InDelta(t, 0, net, 0.01, "existing-only must be capital-neutral")
	}
}

func TestDistribute_NewOnly_SpecScenario(t *testing.T) {
	// Gaps +300 and +100 share 100 of new capital 75/25
	items := []Item{
		{Name: "A", CurrentValue: 100, TargetValue: target(400)},
		{Name: "B", CurrentValue: 100, TargetValue: target(200)},
	}

	result := Distribute(items, ModeNewOnly, 100)

	assert.InDelta(t, 75, result.Actions[0].Action, 0.01)
	assert.InDelta(t, 25, result.Actions[1].Action, 0.01)
}

func TestDistribute_NewOnly_NeverSells(t *testing.T) {
	items := []Item{
		{Name: "A", CurrentValue: 100, TargetValue: target(300)},  // gap +200
		{Name: "B", CurrentValue: 900, TargetValue: target(400)},  // gap -500, over target
		{Name: "C", CurrentValue: 1000, TargetValue: target(995)}, // slightly over
	}

	result := Distribute(items, ModeNewOnly, 200)

	assert.InDelta(t, 200, result.Actions[0].Action, 0.01)
	assert.Equal(t, 0.0, result.Actions[1].Action, "over-target items get nothing, regardless of magnitude")
	assert.Equal(t, 0.0, result.Actions[2].Action)
}

func TestDistribute_NewWithSells_ClosesEveryGap(t *testing.T) {
	items := []Item{
		{Name: "A", CurrentValue: 100, TargetValue: target(400)},
		{Name: "B", CurrentValue: 900, TargetValue: target(400)},
		{Name: "C", CurrentValue: 200, TargetValue: target(200)},
	}

	result := Distribute(items, ModeNewWithSells, 0)

	assert.InDelta(t, 300, result.Actions[0].Action, 0.01)
	assert.InDelta(t, -500, result.Actions[1].Action, 0.01)
	assert.Equal(t, 0.0, result.Actions[2].Action)
	for _, a := range result.Actions {
		assert.InDelta(t, a.TargetValue, a.ValueAfter, atTargetTolerance)
	}
}

func TestDistribute_AllAtTarget(t *testing.T) {
	// Everything within the 1-cent tolerance: no actions, no panic
	items := []Item{
		{Name: "A", CurrentValue: 100.004, TargetValue: target(100)},
		{Name: "B", CurrentValue: 99.996, TargetValue: target(100)},
	}

	for _, mode := range []Mode{ModeExistingOnly, ModeNewOnly, ModeNewWithSells} {
		result := Distribute(items, mode, 500)
		for _, a := range result.Actions {
			assert.Equal(t, 0.0, a.Action, "mode %s", mode)
		}
	}
}

func TestDistribute_ZeroBase(t *testing.T) {
	items := []Item{
		{Name: "A", CurrentValue: 0, TargetWeight: 60},
		{Name: "B", CurrentValue: 0, TargetWeight: 40},
	}

	result := Distribute(items, ModeExistingOnly, 0)

	for _, a := range result.Actions {
		assert.Equal(t, 0.0, a.Action)
		assert.Equal(t, 0.0, a.TargetValue)
	}
}

func TestDistribute_ExistingOnly_OneSidedGaps(t *testing.T) {
	// Only positive gaps: nothing can be funded, so nothing moves
	items := []Item{
		{Name: "A", CurrentValue: 100, TargetValue: target(200)},
		{Name: "B", CurrentValue: 100, TargetValue: target(150)},
	}

	result := Distribute(items, ModeExistingOnly, 0)

	for _, a := range result.Actions {
		assert.Equal(t, 0.0, a.Action)
	}
}

func TestDistribute_WeightResolution(t *testing.T) {
	// Weights normalize to 60/40 over a base of 1000
	items := []Item{
		{Name: "A", CurrentValue: 500, TargetWeight: 30},
		{Name: "B", CurrentValue: 500, TargetWeight: 20},
	}

	result := Distribute(items, ModeExistingOnly, 0)

	assert.InDelta(t, 600, result.Actions[0].TargetValue, 0.01)
	assert.InDelta(t, 400, result.Actions[1].TargetValue, 0.01)
	assert.InDelta(t, 100, result.Actions[0].Action, 0.01)
	assert.InDelta(t, -100, result.Actions[1].Action, 0.01)
	assert.InDelta(t, 60, result.Actions[0].TargetPct, 0.01)
	assert.InDelta(t, 40, result.Actions[1].TargetPct, 0.01)
}

func TestDistribute_TargetValueOverridesWeight(t *testing.T) {
	// Pre-computed target (e.g. from the cap solver) wins over the weight
	items := []Item{
		{Name: "A", CurrentValue: 500, TargetWeight: 50, TargetValue: target(100)},
		{Name: "B", CurrentValue: 500, TargetWeight: 50},
	}

	result := Distribute(items, ModeExistingOnly, 0)

	assert.InDelta(t, 100, result.Actions[0].TargetValue, 0.01)
	assert.InDelta(t, 500, result.Actions[1].TargetValue, 0.01)
}

func TestDistribute_NewOnly_ZeroInvestment(t *testing.T) {
	items := []Item{
		{Name: "A", CurrentValue: 100, TargetValue: target(400)},
	}

	result := Distribute(items, ModeNewOnly, 0)

	assert.Equal(t, 0.0, result.Actions[0].Action)
}

func TestDistributeGrouped_ParentConstraintWins(t *testing.T) {
	// Tech as a whole is over target; its lagging child must not be fed
	// at the expense of the healthy sector.
	groups := []Group{
		{
			Name: "Tech",
			Items: []Item{
				{Name: "Lagging", CurrentValue: 100, TargetValue: target(300)}, // child gap +200
				{Name: "Bloated", CurrentValue: 900, TargetValue: target(400)}, // child gap -500
			},
		},
		{
			Name: "Health",
			Items: []Item{
				{Name: "Under", CurrentValue: 200, TargetValue: target(500)}, // gap +300
			},
		},
	}

	result := DistributeGrouped(groups, ModeExistingOnly, 0)

	// Tech's aggregate gap is -300, so Lagging is excluded from buys
	assert.Equal(t, 0.0, result.Actions[0].Action)
	assert.InDelta(t, -300, result.Actions[1].Action, 0.01)
	assert.InDelta(t, 300, result.Actions[2].Action, 0.01)
}

func TestDistributeGrouped_PositiveParentAllowsChildren(t *testing.T) {
	groups := []Group{
		{
			Name: "Tech",
			Items: []Item{
				{Name: "A", CurrentValue: 100, TargetValue: target(200)},
				{Name: "B", CurrentValue: 100, TargetValue: target(150)},
			},
		},
	}

	result := DistributeGrouped(groups, ModeNewOnly, 150)

	assert.InDelta(t, 100, result.Actions[0].Action, 0.01)
	assert.InDelta(t, 50, result.Actions[1].Action, 0.01)
}

func TestDistributionBase_PolicyTable(t *testing.T) {
	items := []Item{
		{Name: "A", CurrentValue: 700},
		{Name: "B", CurrentValue: 300},
	}

	tests := []struct {
		mode     Mode
		invest   float64
		expected float64
	}{
		{ModeExistingOnly, 500, 1000},
		{ModeNewOnly, 500, 1500},
		{ModeNewWithSells, 500, 1500},
	}

	for _, tt := range tests {
		if got := distributionBase(items, tt.mode, tt.invest); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("distributionBase(%s, %.0f) = %.2f, want %.2f", tt.mode, tt.invest, got, tt.expected)
		}
	}
}
