package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/domain"
)

// Repository handles portfolio and position database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// List returns all portfolios with their positions, in sort order
func (r *Repository) List(ctx context.Context) ([]Portfolio, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, allocation_percent, min_positions, desired_positions, even_split, sort_order
		FROM portfolios
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		var desired sql.NullInt64
		var evenSplit int
		if err := rows.Scan(&p.ID, &p.Name, &p.AllocationPercent, &p.MinPositions, &desired, &evenSplit, &p.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		if desired.Valid {
			v := int(desired.Int64)
			p.DesiredPositions = &v
		}
		p.EvenSplit = evenSplit != 0
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	for i := range portfolios {
		positions, err := r.positionsFor(ctx, portfolios[i].ID)
		if err != nil {
			return nil, err
		}
		portfolios[i].Positions = positions
	}

	return portfolios, nil
}

// Get returns one portfolio with positions, or nil when not found
func (r *Repository) Get(ctx context.Context, portfolioID int64) (*Portfolio, error) {
	var p Portfolio
	var desired sql.NullInt64
	var evenSplit int

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, allocation_percent, min_positions, desired_positions, even_split, sort_order
		FROM portfolios
		WHERE id = ?
	`, portfolioID).Scan(&p.ID, &p.Name, &p.AllocationPercent, &p.MinPositions, &desired, &evenSplit, &p.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	if desired.Valid {
		v := int(desired.Int64)
		p.DesiredPositions = &v
	}
	p.EvenSplit = evenSplit != 0

	positions, err := r.positionsFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Positions = positions

	return &p, nil
}

// Create inserts a new portfolio and returns its ID
func (r *Repository) Create(ctx context.Context, p Portfolio) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolios (name, allocation_percent, min_positions, desired_positions, even_split, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
	`, p.Name, p.AllocationPercent, p.MinPositions, nullableInt(p.DesiredPositions), boolToInt(p.EvenSplit), p.SortOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to create portfolio: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get portfolio id: %w", err)
	}
	return id, nil
}

// Update stores the portfolio's builder fields
func (r *Repository) Update(ctx context.Context, p Portfolio) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE portfolios
		SET name = ?, allocation_percent = ?, min_positions = ?, desired_positions = ?, even_split = ?, sort_order = ?, updated_at = datetime('now')
		WHERE id = ?
	`, p.Name, p.AllocationPercent, p.MinPositions, nullableInt(p.DesiredPositions), boolToInt(p.EvenSplit), p.SortOrder, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	return nil
}

// Delete removes a portfolio; positions cascade
func (r *Repository) Delete(ctx context.Context, portfolioID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM portfolios WHERE id = ?", portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return nil
}

// AddPosition inserts a new position and returns its ID
func (r *Repository) AddPosition(ctx context.Context, pos Position) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO positions (portfolio_id, name, identifier, sector, weight, current_value, security_type, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`, pos.PortfolioID, pos.Name, pos.Identifier, pos.Sector, pos.Weight, pos.CurrentValue, string(pos.SecurityType), pos.SortOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to add position: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get position id: %w", err)
	}
	return id, nil
}

// UpdatePosition stores a position's editable fields
func (r *Repository) UpdatePosition(ctx context.Context, pos Position) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE positions
		SET name = ?, identifier = ?, sector = ?, weight = ?, current_value = ?, security_type = ?, sort_order = ?, updated_at = datetime('now')
		WHERE id = ?
	`, pos.Name, pos.Identifier, pos.Sector, pos.Weight, pos.CurrentValue, string(pos.SecurityType), pos.SortOrder, pos.ID)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// DeletePosition removes a position
func (r *Repository) DeletePosition(ctx context.Context, positionID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM positions WHERE id = ?", positionID)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

// SaveWeights persists recomputed weights and position counts after a
// builder reconcile pass. Only real positions are written; placeholders
// live in memory only.
func (r *Repository) SaveWeights(ctx context.Context, portfolios []Portfolio) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range portfolios {
		if _, err := tx.ExecContext(ctx, `
			UPDATE portfolios
			SET min_positions = ?, desired_positions = ?, updated_at = datetime('now')
			WHERE id = ?
		`, p.MinPositions, nullableInt(p.DesiredPositions), p.ID); err != nil {
			return fmt.Errorf("failed to save portfolio %d: %w", p.ID, err)
		}

		for _, pos := range p.Positions {
			if _, err := tx.ExecContext(ctx, `
				UPDATE positions SET weight = ?, updated_at = datetime('now') WHERE id = ?
			`, pos.Weight, pos.ID); err != nil {
				return fmt.Errorf("failed to save position %d: %w", pos.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit weights: %w", err)
	}
	return nil
}

// PositionCounts returns the number of named positions per portfolio
func (r *Repository) PositionCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT portfolio_id, COUNT(*) FROM positions GROUP BY portfolio_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query position counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var portfolioID int64
		var count int
		if err := rows.Scan(&portfolioID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan position count: %w", err)
		}
		counts[portfolioID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position counts: %w", err)
	}
	return counts, nil
}

func (r *Repository) positionsFor(ctx context.Context, portfolioID int64) ([]Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, portfolio_id, name, COALESCE(identifier, ''), COALESCE(sector, ''),
		       weight, current_value, COALESCE(security_type, ''), sort_order
		FROM positions
		WHERE portfolio_id = ?
		ORDER BY sort_order, id
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var pos Position
		var secType string
		if err := rows.Scan(&pos.ID, &pos.PortfolioID, &pos.Name, &pos.Identifier, &pos.Sector,
			&pos.Weight, &pos.CurrentValue, &secType, &pos.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		pos.SecurityType = domain.SecurityType(secType)
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
