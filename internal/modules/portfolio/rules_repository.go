package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/domain"
)

// RulesRepository stores the concentration caps. A single row holds the
// whole rule set; defaults apply until the user edits anything.
type RulesRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRulesRepository creates a new rules repository
func NewRulesRepository(db *sql.DB, log zerolog.Logger) *RulesRepository {
	return &RulesRepository{
		db:  db,
		log: log.With().Str("repo", "rules").Logger(),
	}
}

// Rules returns the configured caps, or the defaults when none are stored
func (r *RulesRepository) Rules(ctx context.Context) (domain.AllocationRules, error) {
	var rules domain.AllocationRules

	err := r.db.QueryRowContext(ctx, `
		SELECT max_per_stock, max_per_etf, max_per_crypto, max_per_sector, max_per_country
		FROM allocation_rules
		WHERE id = 1
	`).Scan(&rules.MaxPerStock, &rules.MaxPerETF, &rules.MaxPerCrypto, &rules.MaxPerSector, &rules.MaxPerCountry)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultRules(), nil
	}
	if err != nil {
		return domain.AllocationRules{}, fmt.Errorf("failed to get rules: %w", err)
	}

	return rules, nil
}

// Update stores a new rule set
func (r *RulesRepository) Update(ctx context.Context, rules domain.AllocationRules) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO allocation_rules (id, max_per_stock, max_per_etf, max_per_crypto, max_per_sector, max_per_country, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			max_per_stock = excluded.max_per_stock,
			max_per_etf = excluded.max_per_etf,
			max_per_crypto = excluded.max_per_crypto,
			max_per_sector = excluded.max_per_sector,
			max_per_country = excluded.max_per_country,
			updated_at = datetime('now')
	`, rules.MaxPerStock, rules.MaxPerETF, rules.MaxPerCrypto, rules.MaxPerSector, rules.MaxPerCountry)
	if err != nil {
		return fmt.Errorf("failed to update rules: %w", err)
	}

	r.log.Info().
		Float64("max_per_stock", rules.MaxPerStock).
		Float64("max_per_etf", rules.MaxPerETF).
		Msg("Allocation rules updated")
	return nil
}
