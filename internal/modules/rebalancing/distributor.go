package rebalancing

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// atTargetTolerance is the 1-cent band around the target inside which an
// item is left alone. Without it, floating noise makes items oscillate
// between tiny buys and sells on every recompute.
const atTargetTolerance = 0.01

// Distribute computes buy/sell actions for a flat set of items under the
// given mode. investmentAmount is only consulted by the modes that inject
// capital.
//
// The engine never errors: zero totals, zero eligible gaps and empty input
// all produce zero actions.
func Distribute(items []Item, mode Mode, investmentAmount float64) Result {
	return distribute(items, mode, investmentAmount, nil)
}

// DistributeGrouped computes actions for items nested one level under
// parent groups (positions within sectors). A child wanting to grow inside
// a group whose own aggregate gap is zero or negative is excluded from
// distribution: the parent's constraint wins, so a mature sector is not
// starved to feed one lagging position inside it.
//
// Actions are returned in group order, children flattened; the engine does
// no rollups itself (see Aggregate).
func DistributeGrouped(groups []Group, mode Mode, investmentAmount float64) Result {
	var items []Item
	for _, g := range groups {
		items = append(items, g.Items...)
	}

	targets := resolveTargets(items, mode, investmentAmount)

	excluded := make(map[int]bool)
	idx := 0
	for _, g := range groups {
		groupGap := 0.0
		for i := range g.Items {
			groupGap += targets[idx+i] - g.Items[i].CurrentValue
		}
		if groupGap <= 0 {
			for i := range g.Items {
				if targets[idx+i]-g.Items[i].CurrentValue > 0 {
					excluded[idx+i] = true
				}
			}
		}
		idx += len(g.Items)
	}

	return distribute(items, mode, investmentAmount, excluded)
}

// distributionBase returns the denominator that converts normalized target
// weights into absolute target values. existing-only redistributes what is
// already there; the other two modes target the post-investment total.
func distributionBase(items []Item, mode Mode, investmentAmount float64) float64 {
	currents := make([]float64, len(items))
	for i, item := range items {
		currents[i] = item.CurrentValue
	}
	currentTotal := floats.Sum(currents)

	if mode == ModeExistingOnly {
		return currentTotal
	}
	return currentTotal + investmentAmount
}

// resolveTargets converts target weights into absolute target values,
// honoring pre-computed per-item targets (e.g. from the concentration-cap
// solver) where present.
func resolveTargets(items []Item, mode Mode, investmentAmount float64) []float64 {
	targets := make([]float64, len(items))

	base := distributionBase(items, mode, investmentAmount)
	if base > 0 {
		weights := make([]float64, len(items))
		for i, item := range items {
			weights[i] = item.TargetWeight
		}
		normalized := normalizeWeights(weights)
		for i := range items {
			targets[i] = (normalized[i] / 100) * base
		}
	}

	for i, item := range items {
		if item.TargetValue != nil {
			targets[i] = *item.TargetValue
		}
	}
	return targets
}

// normalizeWeights rescales weights to sum to 100; a zero total yields all
// zeros so distribution is skipped rather than divided by zero.
func normalizeWeights(weights []float64) []float64 {
	out := make([]float64, len(weights))
	total := floats.Sum(weights)
	if total == 0 {
		return out
	}
	for i, w := range weights {
		out[i] = 100 * w / total
	}
	return out
}

func distribute(items []Item, mode Mode, investmentAmount float64, excluded map[int]bool) Result {
	result := Result{
		Mode:    mode,
		Actions: make([]Action, len(items)),
	}

	base := distributionBase(items, mode, investmentAmount)
	targets := resolveTargets(items, mode, investmentAmount)

	// eligible[i] means the item participates in distribution
	eligible := make([]bool, len(items))

	for i, item := range items {
		gap := targets[i] - item.CurrentValue

		result.Actions[i] = Action{
			Name:         item.Name,
			Identifier:   item.Identifier,
			CurrentValue: item.CurrentValue,
			TargetValue:  targets[i],
			Gap:          gap,
			ValueAfter:   item.CurrentValue, // updated below when an action lands
		}
		if base > 0 {
			result.Actions[i].TargetPct = targets[i] / base * 100
		}

		if base <= 0 {
			continue // nothing to distribute against
		}
		if math.Abs(gap) < atTargetTolerance {
			continue // at target
		}
		if excluded[i] {
			continue // parent group's constraint takes precedence
		}
		if mode == ModeNewOnly && gap <= 0 {
			continue // this mode never sells and never tops up over-target items
		}
		eligible[i] = true
	}

	switch mode {
	case ModeNewWithSells:
		// Unlimited capital: every gap closes in full
		for i := range items {
			if eligible[i] {
				result.Actions[i].Action = result.Actions[i].Gap
			}
		}

	case ModeNewOnly:
		positiveSum := 0.0
		for i := range items {
			if eligible[i] {
				positiveSum += result.Actions[i].Gap
			}
		}
		if positiveSum > 0 {
			for i := range items {
				if eligible[i] {
					result.Actions[i].Action = investmentAmount * (result.Actions[i].Gap / positiveSum)
				}
			}
		}

	case ModeExistingOnly:
		positiveSum, negativeSum := 0.0, 0.0
		for i := range items {
			if !eligible[i] {
				continue
			}
			if gap := result.Actions[i].Gap; gap > 0 {
				positiveSum += gap
			} else {
				negativeSum += -gap
			}
		}
		// Both sides must exist, otherwise there is nothing to reshuffle
		if positiveSum > 0 && negativeSum > 0 {
			rebalanceAmount := math.Min(positiveSum, negativeSum)
			for i := range items {
				if !eligible[i] {
					continue
				}
				if gap := result.Actions[i].Gap; gap > 0 {
					result.Actions[i].Action = rebalanceAmount * (gap / positiveSum)
				} else {
					result.Actions[i].Action = -rebalanceAmount * (-gap / negativeSum)
				}
			}
		}
	}

	for i := range result.Actions {
		result.Actions[i].ValueAfter = result.Actions[i].CurrentValue + result.Actions[i].Action
	}

	return result
}
