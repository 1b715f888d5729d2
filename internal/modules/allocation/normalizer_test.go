package allocation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      []float64
		expected []float64
	}{
		{
			name:     "Already normalized",
			raw:      []float64{50, 30, 20},
			expected: []float64{50, 30, 20},
		},
		{
			name:     "Scales up",
			raw:      []float64{25, 25},
			expected: []float64{50, 50},
		},
		{
			name:     "Scales down",
			raw:      []float64{150, 50},
			expected: []float64{75, 25},
		},
		{
			name:     "Zero total returns zeros",
			raw:      []float64{0, 0, 0},
			expected: []float64{0, 0, 0},
		},
		{
			name:     "Empty input",
			raw:      []float64{},
			expected: []float64{},
		},
		{
			name:     "Single weight",
			raw:      []float64{3},
			expected: []float64{100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.raw)
			if len(result) != len(tt.expected) {
				t.Fatalf("Expected %d outputs, got %d", len(tt.expected), len(result))
			}
			for i := range result {
				if math.Abs(result[i]-tt.expected[i]) > 1e-9 {
					t.Errorf("index %d: expected %.4f, got %.4f", i, tt.expected[i], result[i])
				}
			}
		})
	}
}

func TestNormalize_SumsTo100(t *testing.T) {
	inputs := [][]float64{
		{1, 2, 3, 4, 5},
		{0.1, 0.2, 0.7},
		{33, 33, 33},
		{99.99, 0.01},
	}

	for _, raw := range inputs {
		result := Normalize(raw)
		if sum := floats.Sum(result); math.Abs(sum-100) > 1e-9 {
			t.Errorf("Normalize(%v) sums to %.6f, want 100", raw, sum)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []float64{12.5, 37.5, 8.3, 41.7}

	once := Normalize(raw)
	twice := Normalize(once)

	for i := range once {
		if math.Abs(once[i]-twice[i]) > 1e-9 {
			t.Errorf("index %d: normalize(normalize(x))=%.6f differs from normalize(x)=%.6f", i, twice[i], once[i])
		}
	}
}

func TestNormalizePositions(t *testing.T) {
	positions := []Position{
		{Name: "A", Weight: 30},
		{Name: "B", Weight: 30},
		{Name: "Remaining positions", Weight: 60, IsPlaceholder: true},
	}

	NormalizePositions(positions)

	if positions[0].Weight != 25 || positions[1].Weight != 25 || positions[2].Weight != 50 {
		t.Errorf("unexpected weights after normalization: %.2f, %.2f, %.2f",
			positions[0].Weight, positions[1].Weight, positions[2].Weight)
	}
}
