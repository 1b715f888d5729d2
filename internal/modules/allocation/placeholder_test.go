package allocation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v int64) *int64 { return &v }

func TestReconcile_SpecScenario(t *testing.T) {
	// 30% portfolio allocation, 5% max-per-stock cap: minimum is 6 positions.
	// Two real positions at 20% each; data source knows 6 positions.
	p := &Portfolio{
		ID:                1,
		Name:              "Growth",
		AllocationPercent: 30,
		Positions: []Position{
			{ID: id(1), Name: "ASML", Weight: 20},
			{ID: id(2), Name: "NVO", Weight: 20},
		},
	}
	ApplyMinimum(p, 5)
	require.Equal(t, 6, p.MinPositions)

	Reconcile(p, 6)

	ph := p.Placeholder()
	require.NotNil(t, ph, "placeholder expected when slots remain unfilled")
	assert.Equal(t, 4, ph.PositionsRemaining)
	assert.Equal(t, 60.0, ph.TotalRemainingWeight)
	assert.Equal(t, 15.0, ph.Weight)
}

func TestReconcile_Idempotent(t *testing.T) {
	p := &Portfolio{
		ID: 1,
		Positions: []Position{
			{ID: id(1), Name: "A", Weight: 25},
		},
	}

	Reconcile(p, 4)
	first := make([]Position, len(p.Positions))
	copy(first, p.Positions)

	Reconcile(p, 4)
	Reconcile(p, 4)

	require.Equal(t, len(first), len(p.Positions))
	for i := range first {
		assert.Equal(t, first[i], p.Positions[i])
	}
}

func TestReconcile_NoPlaceholderWhenFullyWeighted(t *testing.T) {
	p := &Portfolio{
		ID: 1,
		Positions: []Position{
			{ID: id(1), Name: "A", Weight: 60},
			{ID: id(2), Name: "B", Weight: 40},
		},
	}

	Reconcile(p, 5)

	assert.Nil(t, p.Placeholder(), "no placeholder when real weights already reach 100")
	assert.Len(t, p.Positions, 2)
}

func TestReconcile_NoPlaceholderWhenNothingRemaining(t *testing.T) {
	p := &Portfolio{
		ID: 1,
		Positions: []Position{
			{ID: id(1), Name: "A", Weight: 30},
			{ID: id(2), Name: "B", Weight: 30},
		},
	}

	// Data source knows no more positions than the list already holds
	Reconcile(p, 2)

	assert.Nil(t, p.Placeholder())
}

func TestReconcile_DropsStalePlaceholder(t *testing.T) {
	p := &Portfolio{
		ID: 1,
		Positions: []Position{
			{ID: id(1), Name: "A", Weight: 50},
			{Name: "Remaining positions", Weight: 99, IsPlaceholder: true, PositionsRemaining: 9},
		},
	}

	Reconcile(p, 3)

	ph := p.Placeholder()
	require.NotNil(t, ph)
	assert.Equal(t, 2, ph.PositionsRemaining)
	assert.Equal(t, 50.0, ph.TotalRemainingWeight)
	assert.Equal(t, 25.0, ph.Weight)
}

// Sum invariant: real + placeholder weights stay within 0.02 of 100
// whenever slots remain unfilled.
func TestReconcile_SumInvariant(t *testing.T) {
	cases := []struct {
		weights   []float64
		knownReal int
	}{
		{[]float64{20, 20}, 6},
		{[]float64{33.33, 33.33}, 3},
		{[]float64{10.01, 15.49, 7.77}, 7},
		{[]float64{0.01}, 9},
	}

	for _, tc := range cases {
		p := &Portfolio{ID: 1}
		for i, w := range tc.weights {
			p.Positions = append(p.Positions, Position{ID: id(int64(i + 1)), Name: "pos", Weight: w})
		}

		Reconcile(p, tc.knownReal)

		ph := p.Placeholder()
		require.NotNil(t, ph, "weights %v", tc.weights)

		total := ph.TotalRemainingWeight
		for _, w := range tc.weights {
			total += w
		}
		assert.InDelta(t, 100.0, total, 0.02, "weights %v", tc.weights)
	}
}

func TestReconcileAll_EvenSplitIsGlobal(t *testing.T) {
	desired := 4
	a := &Portfolio{
		ID:               1,
		Name:             "Core",
		EvenSplit:        true,
		DesiredPositions: &desired,
		Positions: []Position{
			{ID: id(1), Name: "A", Weight: 70},
			{ID: id(2), Name: "B", Weight: 10},
		},
	}
	b := &Portfolio{
		ID:           2,
		Name:         "Satellite",
		EvenSplit:    true,
		MinPositions: 2,
		Positions: []Position{
			{ID: id(3), Name: "C", Weight: 90},
		},
	}

	ReconcileAll([]*Portfolio{a, b}, map[int64]int{1: 4, 2: 2})

	// Both portfolios got equalized, not just the edited one
	for _, pos := range a.RealPositions() {
		assert.Equal(t, 25.0, pos.Weight)
	}
	for _, pos := range b.RealPositions() {
		assert.Equal(t, 50.0, pos.Weight)
	}

	phA := a.Placeholder()
	require.NotNil(t, phA)
	assert.Equal(t, 2, phA.PositionsRemaining)
	assert.Equal(t, 50.0, phA.TotalRemainingWeight)
	assert.Equal(t, 25.0, phA.Weight)

	phB := b.Placeholder()
	require.NotNil(t, phB)
	assert.Equal(t, 1, phB.PositionsRemaining)
	assert.Equal(t, 50.0, phB.Weight)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, out float64
	}{
		{15.004, 15.0},
		{15.005, 15.01},
		{33.333333, 33.33},
		{-0.004, 0.0},
	}

	for _, tt := range tests {
		if got := round2(tt.in); math.Abs(got-tt.out) > 1e-9 {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.out)
		}
	}
}
