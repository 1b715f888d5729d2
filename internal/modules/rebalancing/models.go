package rebalancing

import "github.com/aristath/portfolio-planner/internal/domain"

// Mode selects the capital-deployment policy for a rebalance run
type Mode string

const (
	// ModeExistingOnly reshuffles existing capital: total buys equal total
	// sells and no new money is required.
	ModeExistingOnly Mode = "existing-only"

	// ModeNewOnly deploys fresh capital across under-target items only;
	// nothing is ever sold.
	ModeNewOnly Mode = "new-only"

	// ModeNewWithSells closes every gap in full, buys and sells both
	// allowed, assuming capital is not a constraint.
	ModeNewWithSells Mode = "new-with-sells"
)

// Valid reports whether the mode is one of the three policies
func (m Mode) Valid() bool {
	switch m {
	case ModeExistingOnly, ModeNewOnly, ModeNewWithSells:
		return true
	}
	return false
}

// Item is one rebalanceable entry: a position, sector, or portfolio,
// depending on the level the caller distributes at.
type Item struct {
	Name         string              `json:"name"`
	Identifier   string              `json:"identifier,omitempty"`
	SecurityType domain.SecurityType `json:"security_type,omitempty"`
	CurrentValue float64             `json:"current_value"`
	TargetWeight float64             `json:"target_weight"` // 0-100, share of the distribution base

	// TargetValue, when set, is a pre-computed absolute target (e.g. from
	// the concentration-cap solver). It overrides weight resolution for
	// this item.
	TargetValue *float64 `json:"target_value,omitempty"`
}

// Group is a set of items under one parent (positions within a sector).
// The parent's aggregate gap constrains its children during distribution.
type Group struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Action is the computed result for one item. Positive action = buy,
// negative = sell, zero = leave alone.
type Action struct {
	Name         string  `json:"name"`
	Identifier   string  `json:"identifier,omitempty"`
	CurrentValue float64 `json:"current_value"`
	TargetValue  float64 `json:"target_value"`
	TargetPct    float64 `json:"target_pct"`
	Gap          float64 `json:"gap"`
	Action       float64 `json:"action"`
	ValueAfter   float64 `json:"value_after"`
}

// Result is the outcome of one distribution run. Immutable once produced;
// callers rerun the computation after any input change.
type Result struct {
	Mode    Mode     `json:"mode"`
	Actions []Action `json:"actions"`
}

// GroupTotal is a rollup of actions for one group
type GroupTotal struct {
	Name         string   `json:"name"`
	CurrentValue float64  `json:"current_value"`
	TargetValue  float64  `json:"target_value"`
	Action       float64  `json:"action"`
	ValueAfter   float64  `json:"value_after"`
	Actions      []Action `json:"actions,omitempty"`
}
