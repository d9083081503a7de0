package postgres

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"citypulse/internal/domain"
)

type TrendStore struct {
	db *sqlx.DB
}

func NewTrendStore(db *sqlx.DB) *TrendStore {
	return &TrendStore{db: db}
}

// periodFormat maps an interval to the to_char pattern used to group series
// points. Must stay in sync with domain.Interval.PeriodKey.
func periodFormat(interval domain.Interval) string {
	switch interval {
	case domain.IntervalHourly:
		return "YYYY-MM-DD HH24:00:00"
	case domain.IntervalWeekly:
		return "IYYY-IW"
	case domain.IntervalMonthly:
		return "YYYY-MM"
	default:
		return "YYYY-MM-DD"
	}
}

// UpsertTrendBucket replaces the full count triple for the bucket key.
// Runs on the ambient transaction when one is present.
func (s *TrendStore) UpsertTrendBucket(ctx context.Context, bucketStart time.Time, interval domain.Interval, counts domain.SentimentCounts) error {
	query := `
		INSERT INTO trend_buckets (bucket_start, interval_type, positive_count, neutral_count, negative_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bucket_start, interval_type) DO UPDATE SET
			positive_count = EXCLUDED.positive_count,
			neutral_count = EXCLUDED.neutral_count,
			negative_count = EXCLUDED.negative_count`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		bucketStart, interval, counts.Positive, counts.Neutral, counts.Negative)
	return err
}

// ReplaceCategoryBuckets deletes every category row for the bucket key and
// inserts the new set, so stale categories never survive a recompute.
func (s *TrendStore) ReplaceCategoryBuckets(ctx context.Context, bucketStart time.Time, interval domain.Interval, byCategory map[string]int) error {
	exec := GetExecutor(ctx, s.db)

	_, err := exec.ExecContext(ctx,
		"DELETE FROM category_buckets WHERE bucket_start = $1 AND interval_type = $2",
		bucketStart, interval,
	)
	if err != nil {
		return err
	}

	if len(byCategory) == 0 {
		return nil
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("INSERT INTO category_buckets (bucket_start, interval_type, category, count) VALUES ")
	valueArgs := make([]interface{}, 0, len(byCategory)*2+2)
	valueArgs = append(valueArgs, bucketStart, interval)

	for i, category := range categories {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $2, $")
		sb.WriteString(strconv.Itoa(i*2 + 3))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i*2 + 4))
		sb.WriteString(")")
		valueArgs = append(valueArgs, category, byCategory[category])
	}

	_, err = exec.ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

// SumTrendBuckets sums stored rollups over [start, end] grouped by calendar
// day, the precomputed path of the trend series.
func (s *TrendStore) SumTrendBuckets(ctx context.Context, start, end time.Time) ([]domain.TrendPoint, error) {
	return s.SumTrendBucketsBy(ctx, start, end, domain.IntervalDaily)
}

// SumTrendBucketsBy sums stored rollups grouped by the period key of a
// coarser interval derived from bucket_start.
func (s *TrendStore) SumTrendBucketsBy(ctx context.Context, start, end time.Time, interval domain.Interval) ([]domain.TrendPoint, error) {
	query := `
		SELECT to_char(bucket_start AT TIME ZONE 'UTC', '` + periodFormat(interval) + `') AS period,
		       COALESCE(SUM(positive_count), 0) AS positive,
		       COALESCE(SUM(neutral_count), 0)  AS neutral,
		       COALESCE(SUM(negative_count), 0) AS negative
		FROM trend_buckets
		WHERE bucket_start >= $1 AND bucket_start <= $2
		GROUP BY period
		ORDER BY period`

	points := []domain.TrendPoint{}
	err := s.db.SelectContext(ctx, &points, query, start, end)
	return points, err
}

// HasBuckets reports whether any rollup rows exist in [start, end].
// The read path uses it to choose between rollups and the raw fallback.
func (s *TrendStore) HasBuckets(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM trend_buckets WHERE bucket_start >= $1 AND bucket_start <= $2)",
		start, end,
	)
	return exists, err
}

// Bucket fetches a single stored rollup, or nil when absent.
func (s *TrendStore) Bucket(ctx context.Context, bucketStart time.Time, interval domain.Interval) (*domain.TrendBucket, error) {
	var bucket domain.TrendBucket
	err := s.db.GetContext(ctx, &bucket,
		"SELECT bucket_start, interval_type, positive_count, neutral_count, negative_count FROM trend_buckets WHERE bucket_start = $1 AND interval_type = $2",
		bucketStart, interval,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

// CategoryRows returns the stored category rollup rows for one bucket key.
func (s *TrendStore) CategoryRows(ctx context.Context, bucketStart time.Time, interval domain.Interval) ([]domain.CategoryBucket, error) {
	rows := []domain.CategoryBucket{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT bucket_start, interval_type, category, count FROM category_buckets WHERE bucket_start = $1 AND interval_type = $2 ORDER BY category",
		bucketStart, interval,
	)
	return rows, err
}
