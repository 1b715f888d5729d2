package allocation

import "testing"

func TestMinimumPositions(t *testing.T) {
	tests := []struct {
		name       string
		allocation float64
		cap        float64
		expected   int
	}{
		{
			name:       "Spec scenario 30 over 5",
			allocation: 30,
			cap:        5,
			expected:   6,
		},
		{
			name:       "Rounds up",
			allocation: 31,
			cap:        5,
			expected:   7,
		},
		{
			name:       "Exact division",
			allocation: 25,
			cap:        5,
			expected:   5,
		},
		{
			name:       "Small allocation still needs one",
			allocation: 2,
			cap:        5,
			expected:   1,
		},
		{
			name:       "Zero allocation",
			allocation: 0,
			cap:        5,
			expected:   1,
		},
		{
			name:       "Zero cap falls back to one",
			allocation: 50,
			cap:        0,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinimumPositions(tt.allocation, tt.cap); got != tt.expected {
				t.Errorf("MinimumPositions(%.1f, %.1f) = %d, want %d", tt.allocation, tt.cap, got, tt.expected)
			}
		})
	}
}

// Non-decreasing in allocation, non-increasing in cap, always >= 1.
func TestMinimumPositions_Monotonic(t *testing.T) {
	caps := []float64{1, 2.5, 5, 10}
	for _, cap := range caps {
		prev := 0
		for alloc := 0.0; alloc <= 100; alloc += 2.5 {
			n := MinimumPositions(alloc, cap)
			if n < 1 {
				t.Fatalf("MinimumPositions(%.1f, %.1f) = %d, below 1", alloc, cap, n)
			}
			if n < prev {
				t.Fatalf("MinimumPositions not monotonic in allocation at (%.1f, %.1f)", alloc, cap)
			}
			prev = n
		}
	}

	for alloc := 5.0; alloc <= 100; alloc += 5 {
		prev := int(^uint(0) >> 1)
		for _, cap := range caps {
			n := MinimumPositions(alloc, cap)
			if n > prev {
				t.Fatalf("MinimumPositions not monotonic in cap at (%.1f, %.1f)", alloc, cap)
			}
			prev = n
		}
	}
}

func TestApplyMinimum_PreservesDesired(t *testing.T) {
	desired := 10
	p := &Portfolio{AllocationPercent: 30, DesiredPositions: &desired}

	ApplyMinimum(p, 5)

	if p.MinPositions != 6 {
		t.Errorf("Expected minimum 6, got %d", p.MinPositions)
	}
	if p.DesiredPositions == nil || *p.DesiredPositions != 10 {
		t.Error("Desired positions must survive recalculation")
	}
	if p.EffectivePositions() != 10 {
		t.Errorf("Effective positions should prefer desired, got %d", p.EffectivePositions())
	}

	p.ResetDesired()
	if p.EffectivePositions() != 6 {
		t.Errorf("After reset, effective positions should be the minimum, got %d", p.EffectivePositions())
	}
}
