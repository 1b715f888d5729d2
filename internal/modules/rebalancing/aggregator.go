package rebalancing

import (
	"fmt"
	"math"
)

// Aggregate rolls leaf actions up into per-group totals: pure summation of
// action and value-after, no further business rules. actions must be the
// Result of DistributeGrouped over the same groups, in the same order.
//
// The second return value lists data-integrity warnings: a group whose
// reported total drifts from the sum of its leaves by more than the 1-cent
// tolerance indicates a logic or floating-point bug and is surfaced, never
// silently corrected.
func Aggregate(groups []Group, result Result) ([]GroupTotal, []string) {
	totals := make([]GroupTotal, 0, len(groups))
	var warnings []string

	idx := 0
	for _, g := range groups {
		total := GroupTotal{Name: g.Name}

		leafSum := 0.0
		for range g.Items {
			if idx >= len(result.Actions) {
				warnings = append(warnings, fmt.Sprintf(
					"group %q: %d actions missing from result", g.Name, len(g.Items)))
				break
			}
			a := result.Actions[idx]
			total.CurrentValue += a.CurrentValue
			total.TargetValue += a.TargetValue
			total.Action += a.Action
			total.ValueAfter += a.ValueAfter
			total.Actions = append(total.Actions, a)
			leafSum += a.Action
			idx++
		}

		// Cross-check: the rollup must equal the leaf sum exactly (same
		// accumulator), so any drift means corrupted input or a bug.
		if diff := math.Abs(total.Action - leafSum); diff > atTargetTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"group %q: leaf actions sum to %.2f but group total is %.2f", g.Name, leafSum, total.Action))
		}

		totals = append(totals, total)
	}

	return totals, warnings
}

// VerifyConservation checks that group totals and leaf actions agree, and
// that existing-only runs conserve capital (buys equal sells). Returns the
// warnings to surface; an empty slice means the plan is internally
// consistent.
func VerifyConservation(result Result, totals []GroupTotal) []string {
	var warnings []string

	leafSum := 0.0
	for _, a := range result.Actions {
		leafSum += a.Action
	}

	totalSum := 0.0
	for _, t := range totals {
		totalSum += t.Action
	}

	if diff := math.Abs(leafSum - totalSum); diff > atTargetTolerance {
		warnings = append(warnings, fmt.Sprintf(
			"aggregation mismatch: leaf actions sum to %.2f, group totals to %.2f", leafSum, totalSum))
	}

	if result.Mode == ModeExistingOnly {
		if diff := math.Abs(leafSum); diff > atTargetTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"existing-only run is not capital-neutral: net action %.2f", leafSum))
		}
	}

	return warnings
}
