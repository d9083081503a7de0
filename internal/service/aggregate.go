package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"citypulse/internal/domain"
)

// Aggregator rolls posts in a time window into stored trend and category
// buckets. Re-running a window replaces the previous rollup in full, so the
// operation is safe to repeat.
type Aggregator struct {
	posts     PostStore
	trends    TrendStore
	txManager TransactionManager
	logger    *slog.Logger
}

func NewAggregator(posts PostStore, trends TrendStore, txManager TransactionManager, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		posts:     posts,
		trends:    trends,
		txManager: txManager,
		logger:    logger.With("component", "aggregator"),
	}
}

// Run aggregates posts with timestamp in [windowStart, windowEnd) and writes
// both rollups in one transaction keyed at the floor of windowEnd.
func (a *Aggregator) Run(ctx context.Context, windowStart, windowEnd time.Time, interval domain.Interval) error {
	if !interval.Valid() {
		return fmt.Errorf("invalid interval type %q", interval)
	}

	counts, err := a.posts.RawSentimentCounts(ctx, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("count sentiments: %w", err)
	}

	byCategory, err := a.posts.RawCategoryCounts(ctx, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}

	bucketStart := interval.Floor(windowEnd)

	err = a.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := a.trends.UpsertTrendBucket(txCtx, bucketStart, interval, counts); err != nil {
			return fmt.Errorf("upsert trend bucket: %w", err)
		}
		if err := a.trends.ReplaceCategoryBuckets(txCtx, bucketStart, interval, byCategory); err != nil {
			return fmt.Errorf("replace category buckets: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("aggregated window",
		"window_start", windowStart,
		"window_end", windowEnd,
		"interval", interval,
		"bucket_start", bucketStart,
		"posts", counts.Total(),
	)

	return nil
}
