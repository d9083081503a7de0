package scheduler

import (
	"context"
	"log/slog"
	"time"

	"citypulse/internal/domain"
)

// tickTimeout bounds one ingestion tick; a tick that overruns is cancelled
// before the next one may start.
const tickTimeout = 5 * time.Minute

// Ingestor runs one ingestion tick.
type Ingestor interface {
	Run(ctx context.Context) (*domain.IngestStats, error)
}

// IngestScheduler drives the ingestor on a fixed interval. Ticks are
// strictly serialized: the loop runs them one at a time, and the ticker
// keeps absolute deadlines so delays never compound.
type IngestScheduler struct {
	ingestor Ingestor
	interval time.Duration
	logger   *slog.Logger
}

func NewIngestScheduler(ingestor Ingestor, interval time.Duration, logger *slog.Logger) *IngestScheduler {
	return &IngestScheduler{
		ingestor: ingestor,
		interval: interval,
		logger:   logger,
	}
}

func (s *IngestScheduler) Start(ctx context.Context) error {
	s.logger.Info("ingest scheduler started", "interval", s.interval)

	s.runTick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ingest scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

func (s *IngestScheduler) runTick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	if _, err := s.ingestor.Run(tickCtx); err != nil {
		s.logger.Error("ingest tick failed", "error", err)
	}
}
