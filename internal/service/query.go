package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"citypulse/internal/domain"
)

// QueryService is the read-only surface over the record store. Trend reads
// prefer stored rollups and fall back to scanning raw posts for the whole
// window when no rollups exist in range.
type QueryService struct {
	posts  PostStore
	trends TrendStore
	logger *slog.Logger
}

func NewQueryService(posts PostStore, trends TrendStore, logger *slog.Logger) *QueryService {
	return &QueryService{
		posts:  posts,
		trends: trends,
		logger: logger.With("component", "query"),
	}
}

// Posts returns stored posts, most recent first.
func (s *QueryService) Posts(ctx context.Context, limit int, filter domain.PostFilter) ([]domain.Post, error) {
	return s.posts.Query(ctx, limit, filter)
}

// TrendSeries returns per-day sentiment counts for [start, end). Both query
// paths produce the same point shape and, for the same stored posts, the
// same values.
func (s *QueryService) TrendSeries(ctx context.Context, start, end time.Time) ([]domain.TrendPoint, error) {
	hasBuckets, err := s.trends.HasBuckets(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("probe rollups: %w", err)
	}

	if hasBuckets {
		return s.trends.SumTrendBuckets(ctx, start, end)
	}

	s.logger.Debug("no rollups in range, scanning raw posts", "start", start, "end", end)
	return s.posts.RawSentimentSeries(ctx, start, end, domain.IntervalDaily)
}

// HistoricalTrends groups stored rollups by the period key of the given
// interval, scanning raw posts instead when no rollups match the range.
func (s *QueryService) HistoricalTrends(ctx context.Context, start, end time.Time, interval domain.Interval) ([]domain.TrendPoint, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("invalid interval type %q", interval)
	}

	points, err := s.trends.SumTrendBucketsBy(ctx, start, end, interval)
	if err != nil {
		return nil, fmt.Errorf("sum rollups: %w", err)
	}
	if len(points) > 0 {
		return points, nil
	}

	s.logger.Debug("no rollups in range, scanning raw posts",
		"start", start, "end", end, "interval", interval)
	return s.posts.RawSentimentSeries(ctx, start, end, interval)
}

// CategoryCounts returns post counts grouped by category over all posts.
func (s *QueryService) CategoryCounts(ctx context.Context) ([]domain.NamedCount, error) {
	return s.posts.CategoryCounts(ctx)
}

// PlatformCounts returns post counts grouped by platform over all posts.
func (s *QueryService) PlatformCounts(ctx context.Context) ([]domain.NamedCount, error) {
	return s.posts.PlatformCounts(ctx)
}

// MapPoints returns the most recent posts that carry coordinates.
func (s *QueryService) MapPoints(ctx context.Context, limit int) ([]domain.Post, error) {
	return s.posts.PostsWithCoordinates(ctx, limit)
}
