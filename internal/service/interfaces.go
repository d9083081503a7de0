package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"citypulse/internal/domain"
)

type Source interface {
	ID() string
	FetchRecent(ctx context.Context) ([]domain.RawPost, error)
}

type Enricher interface {
	Enrich(ctx context.Context, raw domain.RawPost) domain.Post
}

type PostStore interface {
	Insert(ctx context.Context, post *domain.Post) (bool, error)
	Query(ctx context.Context, limit int, filter domain.PostFilter) ([]domain.Post, error)
	RawSentimentCounts(ctx context.Context, start, end time.Time) (domain.SentimentCounts, error)
	RawCategoryCounts(ctx context.Context, start, end time.Time) (map[string]int, error)
	RawSentimentSeries(ctx context.Context, start, end time.Time, interval domain.Interval) ([]domain.TrendPoint, error)
	CategoryCounts(ctx context.Context) ([]domain.NamedCount, error)
	PlatformCounts(ctx context.Context) ([]domain.NamedCount, error)
	PostsWithCoordinates(ctx context.Context, limit int) ([]domain.Post, error)
}

type TrendStore interface {
	UpsertTrendBucket(ctx context.Context, bucketStart time.Time, interval domain.Interval, counts domain.SentimentCounts) error
	ReplaceCategoryBuckets(ctx context.Context, bucketStart time.Time, interval domain.Interval, byCategory map[string]int) error
	SumTrendBuckets(ctx context.Context, start, end time.Time) ([]domain.TrendPoint, error)
	SumTrendBucketsBy(ctx context.Context, start, end time.Time, interval domain.Interval) ([]domain.TrendPoint, error)
	HasBuckets(ctx context.Context, start, end time.Time) (bool, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Broadcaster interface {
	Broadcast(posts []domain.Post)
}

type Publisher interface {
	PublishBatch(ctx context.Context, posts []domain.Post) error
	Close() error
}
