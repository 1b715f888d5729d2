package rebalancing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/domain"
)

// PlanPosition is the rebalance-time view of a position: live current value
// plus its normalized target weight within the portfolio.
type PlanPosition struct {
	Name         string
	Identifier   string
	Sector       string
	SecurityType domain.SecurityType
	Weight       float64 // 0-100, share of the portfolio's capital
	CurrentValue float64
}

// PlanPortfolio is the rebalance-time view of a portfolio
type PlanPortfolio struct {
	ID                int64
	Name              string
	AllocationPercent float64
	Positions         []PlanPosition
}

// PortfolioSource supplies the read-only snapshot a plan is computed from
type PortfolioSource interface {
	PortfoliosWithPositions(ctx context.Context) ([]PlanPortfolio, error)
}

// RulesSource supplies the concentration caps
type RulesSource interface {
	Rules(ctx context.Context) (domain.AllocationRules, error)
}

// Simulation is a saved rebalance run
type Simulation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mode      Mode      `json:"mode"`
	Amount    float64   `json:"amount"`
	Plan      *Plan     `json:"plan,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SimulationStore persists saved runs
type SimulationStore interface {
	SaveSimulation(ctx context.Context, sim Simulation) error
	ListSimulations(ctx context.Context) ([]Simulation, error)
	GetSimulation(ctx context.Context, id string) (*Simulation, error)
	DeleteSimulation(ctx context.Context, id string) error
}

// PlanRequest describes one rebalance computation
type PlanRequest struct {
	Mode             Mode    `json:"mode"`
	InvestmentAmount float64 `json:"investment_amount"`
	ApplyConstraints bool    `json:"apply_constraints"`
}

// PortfolioPlan is the per-portfolio slice of a plan, rolled up from its
// sector totals
type PortfolioPlan struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	CurrentValue float64      `json:"current_value"`
	TargetValue  float64      `json:"target_value"`
	TargetPct    float64      `json:"target_pct"`
	Action       float64      `json:"action"`
	ValueAfter   float64      `json:"value_after"`
	Status       string       `json:"status"`
	Sectors      []GroupTotal `json:"sectors"`
}

// Plan is a complete rebalancing plan
type Plan struct {
	Mode              Mode            `json:"mode"`
	InvestmentAmount  float64         `json:"investment_amount"`
	TotalCurrentValue float64         `json:"total_current_value"`
	DistributionBase  float64         `json:"distribution_base"`
	Portfolios        []PortfolioPlan `json:"portfolios"`
	TotalBuys         float64         `json:"total_buys"`
	TotalSells        float64         `json:"total_sells"`
	NetAction         float64         `json:"net_action"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// Service computes rebalancing plans from live portfolio state
type Service struct {
	portfolios PortfolioSource
	rules      RulesSource
	sims       SimulationStore
	log        zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(portfolios PortfolioSource, rules RulesSource, sims SimulationStore, log zerolog.Logger) *Service {
	return &Service{
		portfolios: portfolios,
		rules:      rules,
		sims:       sims,
		log:        log.With().Str("service", "rebalancing").Logger(),
	}
}

// Plan computes a full rebalancing plan for the requested mode. Results are
// recomputed from scratch on every call; nothing is cached.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("unknown rebalance mode %q", req.Mode)
	}

	portfolios, err := s.portfolios.PortfoliosWithPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolios: %w", err)
	}

	rules, err := s.rules.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	plan := s.computePlan(portfolios, rules, req)

	s.log.Info().
		Str("mode", string(req.Mode)).
		Float64("investment", req.InvestmentAmount).
		Float64("total_buys", plan.TotalBuys).
		Float64("total_sells", plan.TotalSells).
		Int("warnings", len(plan.Warnings)).
		Msg("Rebalancing plan computed")

	return plan, nil
}

// computePlan is the pure part of Plan, separated so tests can drive it
// without a store.
func (s *Service) computePlan(portfolios []PlanPortfolio, rules domain.AllocationRules, req PlanRequest) *Plan {
	totalCurrent := 0.0
	for _, p := range portfolios {
		for _, pos := range p.Positions {
			totalCurrent += pos.CurrentValue
		}
	}

	base := totalCurrent
	if req.Mode != ModeExistingOnly {
		base += req.InvestmentAmount
	}

	plan := &Plan{
		Mode:              req.Mode,
		InvestmentAmount:  req.InvestmentAmount,
		TotalCurrentValue: totalCurrent,
		DistributionBase:  base,
	}

	// Build sector groups across all portfolios; targets are resolved per
	// portfolio so weights stay relative to each portfolio's capital.
	var groups []Group
	groupPortfolio := make([]int, 0) // group index -> portfolio index

	for pi, p := range portfolios {
		portfolioTarget := (p.AllocationPercent / 100) * base
		targets := s.positionTargets(p, portfolioTarget, rules, req.ApplyConstraints)

		sectorOrder, bySector := groupBySector(p.Positions)
		for _, sector := range sectorOrder {
			group := Group{Name: sector}
			for _, posIdx := range bySector[sector] {
				pos := p.Positions[posIdx]
				target := targets[posIdx]
				group.Items = append(group.Items, Item{
					Name:         pos.Name,
					Identifier:   pos.Identifier,
					SecurityType: pos.SecurityType,
					CurrentValue: pos.CurrentValue,
					TargetWeight: pos.Weight,
					TargetValue:  &target,
				})
			}
			groups = append(groups, group)
			groupPortfolio = append(groupPortfolio, pi)
		}
	}

	result := DistributeGrouped(groups, req.Mode, req.InvestmentAmount)
	totals, warnings := Aggregate(groups, result)
	plan.Warnings = append(plan.Warnings, warnings...)
	plan.Warnings = append(plan.Warnings, VerifyConservation(result, totals)...)

	// Roll sector totals up into portfolio plans
	byPortfolio := make(map[int]*PortfolioPlan)
	for gi, total := range totals {
		pi := groupPortfolio[gi]
		pp, ok := byPortfolio[pi]
		if !ok {
			p := portfolios[pi]
			pp = &PortfolioPlan{ID: p.ID, Name: p.Name}
			byPortfolio[pi] = pp
		}
		pp.CurrentValue += total.CurrentValue
		pp.TargetValue += total.TargetValue
		pp.Action += total.Action
		pp.ValueAfter += total.ValueAfter
		pp.Sectors = append(pp.Sectors, total)
	}

	for pi := range portfolios {
		pp, ok := byPortfolio[pi]
		if !ok {
			p := portfolios[pi]
			pp = &PortfolioPlan{ID: p.ID, Name: p.Name}
		}
		if base > 0 {
			pp.TargetPct = pp.TargetValue / base * 100
			pp.Status = domain.DeviationStatus((pp.CurrentValue - pp.TargetValue) / base)
		}
		plan.Portfolios = append(plan.Portfolios, *pp)
	}

	for _, a := range result.Actions {
		if a.Action > 0 {
			plan.TotalBuys += a.Action
		} else {
			plan.TotalSells += -a.Action
		}
		plan.NetAction += a.Action
	}

	return plan
}

// positionTargets resolves each position's absolute target value within its
// portfolio, optionally running the concentration-cap solver.
func (s *Service) positionTargets(p PlanPortfolio, portfolioTarget float64, rules domain.AllocationRules, applyConstraints bool) []float64 {
	weights := make([]float64, len(p.Positions))
	for i, pos := range p.Positions {
		weights[i] = pos.Weight
	}
	normalized := normalizeWeights(weights)

	targets := make([]float64, len(p.Positions))
	for i := range p.Positions {
		targets[i] = (normalized[i] / 100) * portfolioTarget
	}

	if !applyConstraints {
		return targets
	}

	capped := make([]CappedTarget, len(p.Positions))
	for i, pos := range p.Positions {
		capped[i] = CappedTarget{
			Name:                pos.Name,
			SecurityType:        pos.SecurityType,
			UnconstrainedTarget: targets[i],
		}
	}
	ApplyTypeConstraints(capped, portfolioTarget, rules)

	for i := range capped {
		targets[i] = capped[i].ConstrainedTarget
	}
	return targets
}

// groupBySector groups position indexes by sector, preserving first-seen
// sector order. Positions without a sector land in "Uncategorized".
func groupBySector(positions []PlanPosition) ([]string, map[string][]int) {
	var order []string
	bySector := make(map[string][]int)

	for i, pos := range positions {
		sector := pos.Sector
		if sector == "" {
			sector = "Uncategorized"
		}
		if _, seen := bySector[sector]; !seen {
			order = append(order, sector)
		}
		bySector[sector] = append(bySector[sector], i)
	}
	return order, bySector
}

// SaveSimulation persists a named run of the given plan request
func (s *Service) SaveSimulation(ctx context.Context, name string, req PlanRequest) (*Simulation, error) {
	plan, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	sim := Simulation{
		ID:        uuid.NewString(),
		Name:      name,
		Mode:      req.Mode,
		Amount:    req.InvestmentAmount,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sims.SaveSimulation(ctx, sim); err != nil {
		return nil, fmt.Errorf("failed to save simulation: %w", err)
	}

	return &sim, nil
}

// ListSimulations returns saved runs, newest first
func (s *Service) ListSimulations(ctx context.Context) ([]Simulation, error) {
	return s.sims.ListSimulations(ctx)
}

// GetSimulation returns one saved run with its full plan
func (s *Service) GetSimulation(ctx context.Context, id string) (*Simulation, error) {
	return s.sims.GetSimulation(ctx, id)
}

// DeleteSimulation removes a saved run
func (s *Service) DeleteSimulation(ctx context.Context, id string) error {
	return s.sims.DeleteSimulation(ctx, id)
}
