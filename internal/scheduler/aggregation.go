package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"citypulse/internal/domain"
)

// aggregationTimeout bounds one aggregation run.
const aggregationTimeout = 5 * time.Minute

// Aggregator recomputes the rollups for one window.
type Aggregator interface {
	Run(ctx context.Context, windowStart, windowEnd time.Time, interval domain.Interval) error
}

// AggregationScheduler runs the aggregator at every top of the hour over the
// hour that just closed. The schedule is wall-clock aligned, not an offset
// from the previous run; a failed run is logged and skipped, and the missing
// bucket is covered by the raw fallback on read until the window is rerun.
type AggregationScheduler struct {
	aggregator Aggregator
	cron       *cron.Cron
	logger     *slog.Logger
}

func NewAggregationScheduler(aggregator Aggregator, logger *slog.Logger) *AggregationScheduler {
	return &AggregationScheduler{
		aggregator: aggregator,
		cron:       cron.New(cron.WithLocation(time.UTC)),
		logger:     logger,
	}
}

// Start schedules the hourly job and blocks until ctx is cancelled.
func (s *AggregationScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("0 * * * *", s.runHourly); err != nil {
		return fmt.Errorf("schedule hourly aggregation: %w", err)
	}

	s.logger.Info("aggregation scheduler started", "schedule", "0 * * * *")
	s.cron.Start()

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("aggregation scheduler stopped")

	return ctx.Err()
}

func (s *AggregationScheduler) runHourly() {
	ctx, cancel := context.WithTimeout(context.Background(), aggregationTimeout)
	defer cancel()

	windowEnd := time.Now().UTC().Truncate(time.Hour)
	windowStart := windowEnd.Add(-time.Hour)

	if err := s.aggregator.Run(ctx, windowStart, windowEnd, domain.IntervalHourly); err != nil {
		s.logger.Error("aggregation run failed",
			"window_start", windowStart,
			"window_end", windowEnd,
			"error", err,
		)
	}
}
