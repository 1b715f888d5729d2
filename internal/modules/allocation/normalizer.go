package allocation

import "gonum.org/v1/gonum/floats"

// Normalize rescales raw weights so they sum to exactly 100, each output
// proportional to its input. A zero total returns all zeros rather than
// failing; callers decide what an all-zero weight set means (typically an
// equal split).
//
// Negative inputs are not validated here: weights come from the caller's
// input layer, which is responsible for rejecting them.
func Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	total := floats.Sum(raw)
	if total == 0 {
		return out
	}

	for i, w := range raw {
		out[i] = 100 * w / total
	}
	return out
}

// NormalizePositions rescales the weights of a position list in place so
// they sum to 100. Placeholder entries participate like any other entry,
// keeping real + placeholder weights consistent after the pass.
func NormalizePositions(positions []Position) {
	raw := make([]float64, len(positions))
	for i, p := range positions {
		raw[i] = p.Weight
	}

	normalized := Normalize(raw)
	for i := range positions {
		positions[i].Weight = round2(normalized[i])
	}
}
