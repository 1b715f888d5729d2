package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/modules/portfolio"
)

// SnapshotJob records a daily rollup of total portfolio value. The snapshot
// writer replaces the current day's row, so overlapping runs are harmless.
type SnapshotJob struct {
	portfolios *portfolio.Service
	timeout    time.Duration
	log        zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(portfolios *portfolio.Service, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		portfolios: portfolios,
		timeout:    30 * time.Second,
		log:        log.With().Str("job", "snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "snapshot"
}

// Run records today's snapshot
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	snap, err := j.portfolios.TakeSnapshot(ctx)
	if err != nil {
		return err
	}

	j.log.Debug().
		Str("date", snap.Date).
		Float64("total_value", snap.TotalValue).
		Msg("Snapshot job finished")
	return nil
}
