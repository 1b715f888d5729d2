package allocation

import "math"

// MinimumPositions derives how many distinct positions a portfolio must
// hold so that no single position exceeds maxPerPosition percent of total
// capital. Always rounds up and never returns less than 1, so required
// diversification is never under-counted.
func MinimumPositions(allocationPercent, maxPerPosition float64) int {
	if maxPerPosition <= 0 {
		return 1
	}

	n := int(math.Ceil(allocationPercent / maxPerPosition))
	if n < 1 {
		return 1
	}
	return n
}

// ApplyMinimum recalculates the portfolio's minimum position count from its
// allocation and the per-position cap. A desired count set by the user is
// left untouched; only ResetDesired discards it.
func ApplyMinimum(p *Portfolio, maxPerPosition float64) {
	p.MinPositions = MinimumPositions(p.AllocationPercent, maxPerPosition)
}
