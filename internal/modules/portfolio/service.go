package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/modules/allocation"
	"github.com/aristath/portfolio-planner/internal/modules/rebalancing"
)

// Service orchestrates portfolio CRUD and adapts stored state into the views
// the allocation and rebalancing engines consume.
type Service struct {
	repo      *Repository
	snapshots *SnapshotRepository
	log       zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(repo *Repository, snapshots *SnapshotRepository, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		snapshots: snapshots,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// List returns all portfolios with their positions
func (s *Service) List(ctx context.Context) ([]Portfolio, error) {
	return s.repo.List(ctx)
}

// Get returns one portfolio, or nil when not found
func (s *Service) Get(ctx context.Context, id int64) (*Portfolio, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a portfolio and returns it with its assigned ID
func (s *Service) Create(ctx context.Context, p Portfolio) (*Portfolio, error) {
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id

	s.log.Info().Int64("portfolio_id", id).Str("name", p.Name).Msg("Portfolio created")
	return &p, nil
}

// Update stores a portfolio's builder fields
func (s *Service) Update(ctx context.Context, p Portfolio) error {
	return s.repo.Update(ctx, p)
}

// Delete removes a portfolio and its positions
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("portfolio_id", id).Msg("Portfolio deleted")
	return nil
}

// AddPosition adds a position and returns it with its assigned ID
func (s *Service) AddPosition(ctx context.Context, pos Position) (*Position, error) {
	id, err := s.repo.AddPosition(ctx, pos)
	if err != nil {
		return nil, err
	}
	pos.ID = id
	return &pos, nil
}

// UpdatePosition stores a position's editable fields
func (s *Service) UpdatePosition(ctx context.Context, pos Position) error {
	return s.repo.UpdatePosition(ctx, pos)
}

// DeletePosition removes a position
func (s *Service) DeletePosition(ctx context.Context, id int64) error {
	return s.repo.DeletePosition(ctx, id)
}

// ListPortfolios loads builder-time views for the allocation engine.
// Placeholders are synthetic, so loaded portfolios only ever carry real
// positions; the engine rebuilds placeholder entries itself.
func (s *Service) ListPortfolios(ctx context.Context) ([]*allocation.Portfolio, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	portfolios := make([]*allocation.Portfolio, 0, len(stored))
	for _, p := range stored {
		ap := &allocation.Portfolio{
			ID:                p.ID,
			Name:              p.Name,
			AllocationPercent: p.AllocationPercent,
			MinPositions:      p.MinPositions,
			DesiredPositions:  p.DesiredPositions,
			EvenSplit:         p.EvenSplit,
		}
		for _, pos := range p.Positions {
			id := pos.ID
			ap.Positions = append(ap.Positions, allocation.Position{
				ID:     &id,
				Name:   pos.Name,
				Weight: pos.Weight,
			})
		}
		portfolios = append(portfolios, ap)
	}
	return portfolios, nil
}

// SavePortfolios persists reconciled builder state. Placeholder entries are
// dropped on the way down.
func (s *Service) SavePortfolios(ctx context.Context, portfolios []*allocation.Portfolio) error {
	toSave := make([]Portfolio, 0, len(portfolios))
	for _, ap := range portfolios {
		p := Portfolio{
			ID:               ap.ID,
			MinPositions:     ap.MinPositions,
			DesiredPositions: ap.DesiredPositions,
		}
		for _, pos := range ap.RealPositions() {
			if pos.ID == nil {
				continue
			}
			p.Positions = append(p.Positions, Position{
				ID:     *pos.ID,
				Weight: pos.Weight,
			})
		}
		toSave = append(toSave, p)
	}
	return s.repo.SaveWeights(ctx, toSave)
}

// RealPositionCounts reports named position counts per portfolio
func (s *Service) RealPositionCounts(ctx context.Context) (map[int64]int, error) {
	return s.repo.PositionCounts(ctx)
}

// PortfoliosWithPositions loads the rebalance-time snapshot: live values plus
// target weights, no placeholders.
func (s *Service) PortfoliosWithPositions(ctx context.Context) ([]rebalancing.PlanPortfolio, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	portfolios := make([]rebalancing.PlanPortfolio, 0, len(stored))
	for _, p := range stored {
		pp := rebalancing.PlanPortfolio{
			ID:                p.ID,
			Name:              p.Name,
			AllocationPercent: p.AllocationPercent,
		}
		for _, pos := range p.Positions {
			pp.Positions = append(pp.Positions, rebalancing.PlanPosition{
				Name:         pos.Name,
				Identifier:   pos.Identifier,
				Sector:       pos.Sector,
				SecurityType: pos.SecurityType,
				Weight:       pos.Weight,
				CurrentValue: pos.CurrentValue,
			})
		}
		portfolios = append(portfolios, pp)
	}
	return portfolios, nil
}

// TakeSnapshot records today's total value rollup. Safe to re-run; the
// day's row is replaced.
func (s *Service) TakeSnapshot(ctx context.Context) (*Snapshot, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolios for snapshot: %w", err)
	}

	snap := Snapshot{
		Date:           time.Now().UTC().Format("2006-01-02"),
		PortfolioCount: len(stored),
	}
	for _, p := range stored {
		for _, pos := range p.Positions {
			snap.TotalValue += pos.CurrentValue
			snap.PositionCount++
		}
	}

	if err := s.snapshots.Save(ctx, snap); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("date", snap.Date).
		Float64("total_value", snap.TotalValue).
		Int("positions", snap.PositionCount).
		Msg("Portfolio snapshot recorded")
	return &snap, nil
}

// LatestSnapshot returns the most recent daily rollup, or nil when none exist
func (s *Service) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	return s.snapshots.Latest(ctx)
}

// SnapshotHistory returns up to limit daily rollups, newest first
func (s *Service) SnapshotHistory(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 90
	}
	return s.snapshots.History(ctx, limit)
}
