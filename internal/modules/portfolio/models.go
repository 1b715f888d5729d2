package portfolio

import "github.com/aristath/portfolio-planner/internal/domain"

// Portfolio is the stored builder state for one portfolio
type Portfolio struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	AllocationPercent float64    `json:"allocation_percent"`
	MinPositions      int        `json:"min_positions"`
	DesiredPositions  *int       `json:"desired_positions"`
	EvenSplit         bool       `json:"even_split"`
	SortOrder         int        `json:"sort_order"`
	Positions         []Position `json:"positions,omitempty"`
}

// Position is a stored, named position. Placeholder entries are never
// persisted; this table only ever holds real holdings.
type Position struct {
	ID           int64               `json:"id"`
	PortfolioID  int64               `json:"portfolio_id"`
	Name         string              `json:"name"`
	Identifier   string              `json:"identifier,omitempty"`
	Sector       string              `json:"sector,omitempty"`
	Weight       float64             `json:"weight"`
	CurrentValue float64             `json:"current_value"`
	SecurityType domain.SecurityType `json:"security_type,omitempty"`
	SortOrder    int                 `json:"sort_order"`
}

// Snapshot is a daily rollup of total value across all portfolios
type Snapshot struct {
	Date           string  `json:"date"` // YYYY-MM-DD
	TotalValue     float64 `json:"total_value"`
	PortfolioCount int     `json:"portfolio_count"`
	PositionCount  int     `json:"position_count"`
}
