package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/database"
)

// HealthCheckJob runs SQLite integrity and WAL checkpoint checks on the
// planner database. Corruption is reported, not auto-recovered; the data is
// user-entered and has no upstream source to rebuild from.
type HealthCheckJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(db *database.DB, log zerolog.Logger) *HealthCheckJob {
	return &HealthCheckJob{
		db:  db,
		log: log.With().Str("job", "health_check").Logger(),
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Run executes the health check
func (j *HealthCheckJob) Run() error {
	var result string
	if err := j.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check returned: %s", result)
	}

	j.checkWALCheckpoint()

	j.log.Debug().Msg("Database health check completed")
	return nil
}

// checkWALCheckpoint monitors WAL size and nudges a passive checkpoint
func (j *HealthCheckJob) checkWALCheckpoint() {
	var mode, busy, frames, checkpointed int
	err := j.db.QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&mode, &busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to check WAL checkpoint")
		return
	}

	if frames > 1000 {
		j.log.Warn().
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	}
}
