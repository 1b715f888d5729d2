package allocation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/domain"
)

// BuilderStore loads and persists builder state
type BuilderStore interface {
	ListPortfolios(ctx context.Context) ([]*Portfolio, error)
	SavePortfolios(ctx context.Context, portfolios []*Portfolio) error
}

// PositionCounter reports how many named positions the data source knows
// per portfolio. Used for the placeholder's positionsRemaining computation.
type PositionCounter interface {
	RealPositionCounts(ctx context.Context) (map[int64]int, error)
}

// RulesStore supplies the concentration caps
type RulesStore interface {
	Rules(ctx context.Context) (domain.AllocationRules, error)
}

// Service runs the builder-time engine: minimum-position recalculation and
// placeholder reconciliation over the full portfolio list
type Service struct {
	store   BuilderStore
	counter PositionCounter
	rules   RulesStore
	log     zerolog.Logger
}

// NewService creates a new allocation service
func NewService(store BuilderStore, counter PositionCounter, rules RulesStore, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		counter: counter,
		rules:   rules,
		log:     log.With().Str("service", "allocation").Logger(),
	}
}

// ReconcileAll recomputes minimum position counts and placeholder entries
// for every portfolio, persists the result, and returns the refreshed
// builder summary. Runs as one batch so the even-split equalization pass
// sees all portfolios at once.
func (s *Service) ReconcileAll(ctx context.Context) (BuilderSummary, error) {
	portfolios, err := s.store.ListPortfolios(ctx)
	if err != nil {
		return BuilderSummary{}, fmt.Errorf("failed to load portfolios: %w", err)
	}

	rules, err := s.rules.Rules(ctx)
	if err != nil {
		return BuilderSummary{}, fmt.Errorf("failed to load rules: %w", err)
	}

	counts, err := s.counter.RealPositionCounts(ctx)
	if err != nil {
		return BuilderSummary{}, fmt.Errorf("failed to load position counts: %w", err)
	}

	for _, p := range portfolios {
		ApplyMinimum(p, rules.MaxPerStock)
	}
	ReconcileAll(portfolios, counts)

	if err := s.store.SavePortfolios(ctx, portfolios); err != nil {
		return BuilderSummary{}, fmt.Errorf("failed to save portfolios: %w", err)
	}

	summary := Summarize(portfolios)
	s.log.Debug().
		Int("portfolios", len(portfolios)).
		Float64("total_allocation", summary.TotalAllocation).
		Msg("Builder state reconciled")

	return summary, nil
}

// Summary recomputes the builder summary from scratch without persisting
// anything. Placeholders are synthetic, so they are rebuilt in memory on
// every call rather than read back from storage.
func (s *Service) Summary(ctx context.Context) (BuilderSummary, error) {
	portfolios, err := s.store.ListPortfolios(ctx)
	if err != nil {
		return BuilderSummary{}, fmt.Errorf("failed to load portfolios: %w", err)
	}

	rules, err := s.rules.Rules(ctx)
	if err != nil {
		return BuilderSummary{}, fmt.Errorf("failed to load rules: %w", err)
	}

	counts, err := s.counter.RealPositionCounts(ctx)
	if err != nil {
		return BuilderSummary{}, fmt.Errorf("failed to load position counts: %w", err)
	}

	for _, p := range portfolios {
		ApplyMinimum(p, rules.MaxPerStock)
	}
	ReconcileAll(portfolios, counts)

	return Summarize(portfolios), nil
}

// Summarize builds the display summary for a portfolio list
func Summarize(portfolios []*Portfolio) BuilderSummary {
	summary := BuilderSummary{
		Portfolios: make([]PortfolioSummary, 0, len(portfolios)),
	}

	for _, p := range portfolios {
		real := p.RealPositions()
		realWeight := 0.0
		for _, pos := range real {
			realWeight = round2(realWeight + pos.Weight)
		}

		entry := PortfolioSummary{
			ID:                 p.ID,
			Name:               p.Name,
			AllocationPercent:  p.AllocationPercent,
			MinPositions:       p.MinPositions,
			DesiredPositions:   p.DesiredPositions,
			EffectivePositions: p.EffectivePositions(),
			RealPositionCount:  len(real),
			RealWeight:         realWeight,
			TotalWeight:        realWeight,
		}

		if ph := p.Placeholder(); ph != nil {
			entry.PlaceholderWeight = ph.Weight
			entry.PositionsRemaining = ph.PositionsRemaining
			entry.TotalWeight = round2(realWeight + ph.TotalRemainingWeight)
		}

		summary.Portfolios = append(summary.Portfolios, entry)
		summary.TotalAllocation = round2(summary.TotalAllocation + p.AllocationPercent)
	}

	summary.OverAllocated = summary.TotalAllocation > 100
	summary.UnderAllocated = summary.TotalAllocation < 100
	return summary
}

// ClampAddition bounds a requested weight addition against what the
// portfolio can still absorb. Returns the clamped weight and, when the
// request was reduced or rejected, a user-facing warning. Never errors:
// malformed requests produce a zero addition plus the warning.
func ClampAddition(p *Portfolio, requested float64) (float64, string) {
	if requested < 0 {
		return 0, "Cannot add a negative weight"
	}

	realWeight := 0.0
	for _, pos := range p.RealPositions() {
		realWeight = round2(realWeight + pos.Weight)
	}

	if realWeight >= 100 {
		return 0, fmt.Sprintf("Already at %.2f%%, can't add to reach %.2f%%", realWeight, round2(realWeight+requested))
	}

	available := round2(100 - realWeight)
	if requested > available {
		return available, fmt.Sprintf("Already at %.2f%%, can't add to reach %.2f%%; clamped to %.2f%%", realWeight, round2(realWeight+requested), available)
	}

	return requested, ""
}
