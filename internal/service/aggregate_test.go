package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"citypulse/internal/domain"
	"citypulse/internal/service/mocks"
)

type AggregatorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	posts     *mocks.MockPostStore
	trends    *mocks.MockTrendStore
	txManager *mocks.MockTransactionManager

	aggregator *Aggregator
}

func (s *AggregatorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.posts = mocks.NewMockPostStore(s.ctrl)
	s.trends = mocks.NewMockTrendStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.aggregator = NewAggregator(s.posts, s.trends, s.txManager, logger)
}

func (s *AggregatorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAggregatorTestSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func (s *AggregatorTestSuite) TestRun_HourlyWindow() {
	ctx := context.Background()
	windowStart := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	// One positive post at 10:15 and one negative at 10:45.
	counts := domain.SentimentCounts{Positive: 1, Neutral: 0, Negative: 1}
	byCategory := map[string]int{"water": 1, "transportation": 1}

	s.posts.EXPECT().RawSentimentCounts(ctx, windowStart, windowEnd).Return(counts, nil)
	s.posts.EXPECT().RawCategoryCounts(ctx, windowStart, windowEnd).Return(byCategory, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)

	// The bucket is keyed at the floor of the window end, 11:00.
	s.trends.EXPECT().UpsertTrendBucket(ctx, windowEnd, domain.IntervalHourly, counts).Return(nil)
	s.trends.EXPECT().ReplaceCategoryBuckets(ctx, windowEnd, domain.IntervalHourly, byCategory).Return(nil)

	err := s.aggregator.Run(ctx, windowStart, windowEnd, domain.IntervalHourly)
	s.NoError(err)
}

func (s *AggregatorTestSuite) TestRun_EmptyWindowStillWritesBucket() {
	ctx := context.Background()
	windowStart := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)

	s.posts.EXPECT().RawSentimentCounts(ctx, windowStart, windowEnd).Return(domain.SentimentCounts{}, nil)
	s.posts.EXPECT().RawCategoryCounts(ctx, windowStart, windowEnd).Return(map[string]int{}, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)

	s.trends.EXPECT().UpsertTrendBucket(ctx, windowEnd, domain.IntervalHourly, domain.SentimentCounts{}).Return(nil)
	s.trends.EXPECT().ReplaceCategoryBuckets(ctx, windowEnd, domain.IntervalHourly, map[string]int{}).Return(nil)

	err := s.aggregator.Run(ctx, windowStart, windowEnd, domain.IntervalHourly)
	s.NoError(err)
}

func (s *AggregatorTestSuite) TestRun_InvalidInterval() {
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.aggregator.Run(ctx, now.Add(-time.Hour), now, domain.Interval("yearly"))

	s.Error(err)
	s.Contains(err.Error(), "invalid interval type")
}

func (s *AggregatorTestSuite) TestRun_CountError() {
	ctx := context.Background()
	windowStart := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	s.posts.EXPECT().RawSentimentCounts(ctx, windowStart, windowEnd).
		Return(domain.SentimentCounts{}, errors.New("db down"))

	err := s.aggregator.Run(ctx, windowStart, windowEnd, domain.IntervalHourly)

	s.Error(err)
	s.Contains(err.Error(), "count sentiments")
}

func (s *AggregatorTestSuite) TestRun_RollupWriteRollsBack() {
	ctx := context.Background()
	windowStart := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	counts := domain.SentimentCounts{Positive: 2}
	byCategory := map[string]int{"parks": 2}

	s.posts.EXPECT().RawSentimentCounts(ctx, windowStart, windowEnd).Return(counts, nil)
	s.posts.EXPECT().RawCategoryCounts(ctx, windowStart, windowEnd).Return(byCategory, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)

	s.trends.EXPECT().UpsertTrendBucket(ctx, windowEnd, domain.IntervalHourly, counts).Return(nil)
	s.trends.EXPECT().ReplaceCategoryBuckets(ctx, windowEnd, domain.IntervalHourly, byCategory).
		Return(errors.New("constraint violation"))

	err := s.aggregator.Run(ctx, windowStart, windowEnd, domain.IntervalHourly)

	s.Error(err)
	s.Contains(err.Error(), "replace category buckets")
}

func (s *AggregatorTestSuite) TestRun_DailyBucketKey() {
	ctx := context.Background()
	windowStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	counts := domain.SentimentCounts{Neutral: 3}

	s.posts.EXPECT().RawSentimentCounts(ctx, windowStart, windowEnd).Return(counts, nil)
	s.posts.EXPECT().RawCategoryCounts(ctx, windowStart, windowEnd).Return(map[string]int{"other": 3}, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)

	s.trends.EXPECT().UpsertTrendBucket(ctx, windowEnd, domain.IntervalDaily, counts).Return(nil)
	s.trends.EXPECT().ReplaceCategoryBuckets(ctx, windowEnd, domain.IntervalDaily, map[string]int{"other": 3}).Return(nil)

	err := s.aggregator.Run(ctx, windowStart, windowEnd, domain.IntervalDaily)
	s.NoError(err)
}
