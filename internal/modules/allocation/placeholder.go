package allocation

import "github.com/shopspring/decimal"

// round2 rounds to 2 decimal places, the precision users see in the builder.
// Weight math rounds at every step, not only at output; rounding later would
// let compounding differences drift the visible total away from 100%.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Reconcile rebuilds the portfolio's synthetic "remaining positions" entry.
//
// knownRealCount is the number of named positions the backing data source
// knows for this portfolio; the difference between it and the entries the
// user has explicitly added determines how many slots are still unfilled.
// The call is idempotent: any existing placeholder is dropped and rebuilt
// from scratch, so it is safe to run after every edit.
func Reconcile(p *Portfolio, knownRealCount int) {
	real := p.RealPositions()
	p.Positions = real

	realWeight := 0.0
	for _, pos := range real {
		realWeight = round2(realWeight + pos.Weight)
	}

	positionsRemaining := knownRealCount - len(real)
	if positionsRemaining < 0 {
		positionsRemaining = 0
	}

	// Weight already fully assigned, or nothing left to fill
	if realWeight >= 100 || positionsRemaining == 0 {
		return
	}

	totalRemaining := round2(100 - realWeight)
	if totalRemaining < 0 {
		totalRemaining = 0
	}
	perSlot := round2(totalRemaining / float64(positionsRemaining))

	p.Positions = append(p.Positions, Position{
		Name:                 "Remaining positions",
		Weight:               perSlot,
		IsPlaceholder:        true,
		PositionsRemaining:   positionsRemaining,
		TotalRemainingWeight: totalRemaining,
	})
}

// ReconcileAll runs placeholder reconciliation for every portfolio as one
// batch. If any portfolio is in even-split mode, an equalization pass runs
// over the whole list first: redistributing one portfolio's remainder can
// shift the even-split baseline for the others, so the trigger is global
// rather than per portfolio.
//
// knownRealCounts maps portfolio ID to the named-position count supplied by
// the backing data source.
func ReconcileAll(portfolios []*Portfolio, knownRealCounts map[int64]int) {
	evenSplitActive := false
	for _, p := range portfolios {
		if p.EvenSplit {
			evenSplitActive = true
			break
		}
	}

	if evenSplitActive {
		for _, p := range portfolios {
			if p.EvenSplit {
				equalizeWeights(p)
			}
		}
	}

	for _, p := range portfolios {
		Reconcile(p, knownRealCounts[p.ID])
	}
}

// equalizeWeights gives every real position an equal share of the
// portfolio, based on the effective position count.
func equalizeWeights(p *Portfolio) {
	slots := p.EffectivePositions()
	if slots < 1 {
		slots = 1
	}
	share := round2(100 / float64(slots))

	for i := range p.Positions {
		if !p.Positions[i].IsPlaceholder {
			p.Positions[i].Weight = share
		}
	}
}
