package rebalancing

import "github.com/aristath/portfolio-planner/internal/domain"

// maxCapIterations bounds the cap-and-redistribute loop. Each pass caps at
// least one item, so the limit is only a safety net against pathological
// input.
const maxCapIterations = 100

// CappedTarget carries an item's target value through the concentration-cap
// solver, together with the metadata the UI shows for capped entries.
type CappedTarget struct {
	Name                string              `json:"name"`
	SecurityType        domain.SecurityType `json:"security_type"`
	UnconstrainedTarget float64             `json:"unconstrained_target"`
	ConstrainedTarget   float64             `json:"constrained_target"`
	Capped              bool                `json:"capped"`
	AppliedRule         string              `json:"applied_rule,omitempty"`
}

// ApplyTypeConstraints enforces per-type concentration caps on a
// portfolio's target values, redistributing the excess of capped items to
// the uncapped ones in proportion to their original targets. Redistribution
// can push a previously fine item over its own cap, so the pass repeats
// until no new item gets capped.
//
// The solver mutates items in place. A zero or negative portfolio target
// zeroes every item rather than dividing by it.
func ApplyTypeConstraints(items []CappedTarget, portfolioTargetValue float64, rules domain.AllocationRules) []CappedTarget {
	if portfolioTargetValue <= 0 {
		for i := range items {
			items[i].ConstrainedTarget = 0
			items[i].Capped = true
			items[i].AppliedRule = "zero_portfolio_value"
		}
		return items
	}

	for i := range items {
		items[i].ConstrainedTarget = items[i].UnconstrainedTarget
		items[i].Capped = false
		items[i].AppliedRule = ""
	}

	for iteration := 0; iteration < maxCapIterations; iteration++ {
		anyCapped := false

		for i := range items {
			if items[i].Capped {
				continue
			}

			capPct, rule := rules.CapFor(items[i].SecurityType)
			if rule == "unknown_type" {
				// Untyped items cannot be cap-checked; drop them from
				// target math entirely.
				items[i].Capped = true
				items[i].ConstrainedTarget = 0
				items[i].AppliedRule = rule
				anyCapped = true
				continue
			}

			targetPct := items[i].ConstrainedTarget / portfolioTargetValue * 100
			if targetPct > capPct {
				items[i].Capped = true
				items[i].ConstrainedTarget = (capPct / 100) * portfolioTargetValue
				items[i].AppliedRule = rule
				anyCapped = true
			}
		}

		if !anyCapped {
			break // converged
		}

		redistribute(items, portfolioTargetValue)
	}

	return items
}

// redistribute hands the value not claimed by capped items back to the
// uncapped ones, proportionally to their unconstrained targets, or as an
// equal split when those are all zero.
func redistribute(items []CappedTarget, portfolioTargetValue float64) {
	cappedValue := 0.0
	var uncapped []int
	for i := range items {
		if items[i].Capped {
			cappedValue += items[i].ConstrainedTarget
		} else {
			uncapped = append(uncapped, i)
		}
	}

	if len(uncapped) == 0 {
		return
	}

	available := portfolioTargetValue - cappedValue
	if available <= 0 {
		return
	}

	totalUncappedWeight := 0.0
	for _, i := range uncapped {
		totalUncappedWeight += items[i].UnconstrainedTarget
	}

	if totalUncappedWeight > 0 {
		for _, i := range uncapped {
			ratio := items[i].UnconstrainedTarget / totalUncappedWeight
			items[i].ConstrainedTarget = ratio * available
		}
	} else {
		equalShare := available / float64(len(uncapped))
		for _, i := range uncapped {
			items[i].ConstrainedTarget = equalShare
		}
	}
}
