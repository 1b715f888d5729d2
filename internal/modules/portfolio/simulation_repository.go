package portfolio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/modules/rebalancing"
)

// SimulationRepository persists saved rebalance runs. The full plan is
// stored as JSON; it is display data, never re-read for computation.
type SimulationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSimulationRepository creates a new simulation repository
func NewSimulationRepository(db *sql.DB, log zerolog.Logger) *SimulationRepository {
	return &SimulationRepository{
		db:  db,
		log: log.With().Str("repo", "simulations").Logger(),
	}
}

// SaveSimulation stores one run
func (r *SimulationRepository) SaveSimulation(ctx context.Context, sim rebalancing.Simulation) error {
	planJSON, err := json.Marshal(sim.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO simulations (id, name, mode, amount, plan_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sim.ID, sim.Name, string(sim.Mode), sim.Amount, string(planJSON), sim.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save simulation: %w", err)
	}
	return nil
}

// ListSimulations returns saved runs without their plans, newest first
func (r *SimulationRepository) ListSimulations(ctx context.Context) ([]rebalancing.Simulation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, mode, amount, created_at
		FROM simulations
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulations: %w", err)
	}
	defer rows.Close()

	var sims []rebalancing.Simulation
	for rows.Next() {
		sim, err := scanSimulation(rows.Scan)
		if err != nil {
			return nil, err
		}
		sims = append(sims, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating simulations: %w", err)
	}
	return sims, nil
}

// GetSimulation returns one run with its full plan, or nil when not found
func (r *SimulationRepository) GetSimulation(ctx context.Context, id string) (*rebalancing.Simulation, error) {
	var planJSON string
	var createdAt string
	sim := rebalancing.Simulation{}
	var mode string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, mode, amount, plan_json, created_at
		FROM simulations
		WHERE id = ?
	`, id).Scan(&sim.ID, &sim.Name, &mode, &sim.Amount, &planJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}

	sim.Mode = rebalancing.Mode(mode)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		sim.CreatedAt = t
	}

	var plan rebalancing.Plan
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan for simulation %s: %w", id, err)
	}
	sim.Plan = &plan

	return &sim, nil
}

// DeleteSimulation removes a saved run
func (r *SimulationRepository) DeleteSimulation(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM simulations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete simulation: %w", err)
	}
	return nil
}

func scanSimulation(scan func(...interface{}) error) (rebalancing.Simulation, error) {
	var sim rebalancing.Simulation
	var mode, createdAt string

	if err := scan(&sim.ID, &sim.Name, &mode, &sim.Amount, &createdAt); err != nil {
		return sim, fmt.Errorf("failed to scan simulation: %w", err)
	}

	sim.Mode = rebalancing.Mode(mode)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		sim.CreatedAt = t
	}
	return sim, nil
}
