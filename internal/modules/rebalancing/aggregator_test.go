package rebalancing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_RollsUpGroups(t *testing.T) {
	groups := []Group{
		{
			Name: "Tech",
			Items: []Item{
				{Name: "A", CurrentValue: 100, TargetValue: target(400)},
				{Name: "B", CurrentValue: 100, TargetValue: target(200)},
			},
		},
		{
			Name: "Health",
			Items: []Item{
				{Name: "C", CurrentValue: 600, TargetValue: target(200)},
			},
		},
	}

	result := DistributeGrouped(groups, ModeExistingOnly, 0)
	totals, warnings := Aggregate(groups, result)

	require.Empty(t, warnings)
	require.Len(t, totals, 2)

	tech := totals[0]
	assert.Equal(t, "Tech", tech.Name)
	assert.InDelta(t, 200, tech.CurrentValue, 0.01)
	assert.InDelta(t, 600, tech.TargetValue, 0.01)
	assert.InDelta(t, 400, tech.Action, 0.01)
	assert.InDelta(t, 600, tech.ValueAfter, 0.01)
	require.Len(t, tech.Actions, 2)

	health := totals[1]
	assert.InDelta(t, -400, health.Action, 0.01)
	assert.InDelta(t, 200, health.ValueAfter, 0.01)
}

func TestAggregate_WarnsOnMissingActions(t *testing.T) {
	groups := []Group{
		{
			Name: "Tech",
			Items: []Item{
				{Name: "A", CurrentValue: 100},
				{Name: "B", CurrentValue: 100},
			},
		},
	}

	// Result truncated relative to the groups it claims to cover
	result := Result{
		Mode:    ModeExistingOnly,
		Actions: []Action{{Name: "A", CurrentValue: 100}},
	}

	_, warnings := Aggregate(groups, result)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "Tech")
}

func TestVerifyConservation_CleanPlan(t *testing.T) {
	groups := []Group{
		{
			Name: "All",
			Items: []Item{
				{Name: "A", CurrentValue: 1000, TargetValue: target(1200)},
				{Name: "B", CurrentValue: 800, TargetValue: target(600)},
			},
		},
	}

	result := DistributeGrouped(groups, ModeExistingOnly, 0)
	totals, _ := Aggregate(groups, result)

	warnings := VerifyConservation(result, totals)
	assert.Empty(t, warnings)
}

func TestVerifyConservation_FlagsDrift(t *testing.T) {
	result := Result{
		Mode: ModeExistingOnly,
		Actions: []Action{
			{Name: "A", Action: 150},
			{Name: "B", Action: -100},
		},
	}
	totals := []GroupTotal{{Name: "All", Action: 50}}

	warnings := VerifyConservation(result, totals)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not capital-neutral")
}
