package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// SnapshotRepository stores daily value rollups. One row per day; re-running
// the snapshot job on the same day overwrites that day's row.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Save stores or replaces the snapshot for its date
func (r *SnapshotRepository) Save(ctx context.Context, snap Snapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolio_snapshots (date, total_value, portfolio_count, position_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_value = excluded.total_value,
			portfolio_count = excluded.portfolio_count,
			position_count = excluded.position_count
	`, snap.Date, snap.TotalValue, snap.PortfolioCount, snap.PositionCount)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil when none exist
func (r *SnapshotRepository) Latest(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := r.db.QueryRowContext(ctx, `
		SELECT date, total_value, portfolio_count, position_count
		FROM portfolio_snapshots
		ORDER BY date DESC
		LIMIT 1
	`).Scan(&snap.Date, &snap.TotalValue, &snap.PortfolioCount, &snap.PositionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return &snap, nil
}

// History returns up to limit snapshots, newest first
func (r *SnapshotRepository) History(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, total_value, portfolio_count, position_count
		FROM portfolio_snapshots
		ORDER BY date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Date, &snap.TotalValue, &snap.PortfolioCount, &snap.PositionCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snaps, nil
}
