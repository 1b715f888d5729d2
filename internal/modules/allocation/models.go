package allocation

// Position is a single entry in a portfolio's target allocation list.
// The placeholder entry is synthetic: it stands for capital earmarked for
// positions the user has not individually chosen yet, and is never persisted
// as a real holding.
type Position struct {
	ID            *int64  `json:"id"` // nil for the synthetic placeholder
	Name          string  `json:"name"`
	Weight        float64 `json:"weight"` // 0-100, share of the portfolio's capital
	IsPlaceholder bool    `json:"is_placeholder"`

	// Placeholder-only fields
	PositionsRemaining   int     `json:"positions_remaining,omitempty"`
	TotalRemainingWeight float64 `json:"total_remaining_weight,omitempty"`
}

// Portfolio is the builder-time view of a portfolio: its share of total
// investable capital plus the ordered target allocation list.
type Portfolio struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	AllocationPercent float64    `json:"allocation_percent"` // 0-100, share of total capital
	MinPositions      int        `json:"min_positions"`      // derived, always >= 1
	DesiredPositions  *int       `json:"desired_positions"`  // user override, nil = use minimum
	EvenSplit         bool       `json:"even_split"`
	Positions         []Position `json:"positions"`
}

// EffectivePositions returns the position count used by all weight math:
// the user's desired count when set, the calculated minimum otherwise.
func (p *Portfolio) EffectivePositions() int {
	if p.DesiredPositions != nil {
		return *p.DesiredPositions
	}
	return p.MinPositions
}

// RealPositions returns the non-placeholder entries
func (p *Portfolio) RealPositions() []Position {
	real := make([]Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		if !pos.IsPlaceholder {
			real = append(real, pos)
		}
	}
	return real
}

// Placeholder returns the synthetic entry, or nil if none exists
func (p *Portfolio) Placeholder() *Position {
	for i := range p.Positions {
		if p.Positions[i].IsPlaceholder {
			return &p.Positions[i]
		}
	}
	return nil
}

// ResetDesired clears the user override back to the calculated minimum.
// This is the only path that discards a previously set desired count.
func (p *Portfolio) ResetDesired() {
	p.DesiredPositions = nil
}

// PortfolioSummary is the builder-state view exposed to rendering and export
type PortfolioSummary struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	AllocationPercent  float64 `json:"allocation_percent"`
	MinPositions       int     `json:"min_positions"`
	DesiredPositions   *int    `json:"desired_positions"`
	EffectivePositions int     `json:"effective_positions"`
	RealPositionCount  int     `json:"real_position_count"`
	RealWeight         float64 `json:"real_weight"`
	PlaceholderWeight  float64 `json:"placeholder_weight"`
	PositionsRemaining int     `json:"positions_remaining"`
	TotalWeight        float64 `json:"total_weight"`
}

// BuilderSummary aggregates per-portfolio summaries. TotalAllocation is
// reported as entered; over- or under-allocating across portfolios is a
// valid state, not an error.
type BuilderSummary struct {
	Portfolios      []PortfolioSummary `json:"portfolios"`
	TotalAllocation float64            `json:"total_allocation"`
	OverAllocated   bool               `json:"over_allocated"`
	UnderAllocated  bool               `json:"under_allocated"`
}
