package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"citypulse/internal/domain"
)

const postColumns = "id, platform, content, ts, location, latitude, longitude, sentiment, category, created_at"

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// Insert stores a post unless its id is already present. It reports whether
// a row was actually inserted; redelivered duplicates are a silent no-op.
func (s *PostStore) Insert(ctx context.Context, post *domain.Post) (bool, error) {
	query := `
		INSERT INTO posts (id, platform, content, ts, location, latitude, longitude, sentiment, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query,
		post.ID,
		post.Platform,
		post.Content,
		post.Timestamp,
		post.Location,
		post.Latitude,
		post.Longitude,
		post.Sentiment,
		post.Category,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Query returns posts most-recent-first, narrowed by the optional filter
// fields. limit <= 0 means no limit.
func (s *PostStore) Query(ctx context.Context, limit int, filter domain.PostFilter) ([]domain.Post, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + postColumns + " FROM posts")

	var conds []string
	var args []interface{}

	addCond := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addCond("platform", filter.Platform)
	addCond("category", filter.Category)
	addCond("sentiment", filter.Sentiment)

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ts DESC")
	if limit > 0 {
		args = append(args, limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	posts := []domain.Post{}
	err := s.db.SelectContext(ctx, &posts, sb.String(), args...)
	return posts, err
}

// RawSentimentCounts scans posts directly for the window [start, end).
// Fallback path for windows with no rollups; slower but always correct.
func (s *PostStore) RawSentimentCounts(ctx context.Context, start, end time.Time) (domain.SentimentCounts, error) {
	query := `
		SELECT sentiment, COUNT(*) AS count
		FROM posts
		WHERE ts >= $1 AND ts < $2
		GROUP BY sentiment`

	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return domain.SentimentCounts{}, err
	}
	defer rows.Close()

	var counts domain.SentimentCounts
	for rows.Next() {
		var sentiment string
		var n int
		if err := rows.Scan(&sentiment, &n); err != nil {
			return domain.SentimentCounts{}, err
		}
		switch sentiment {
		case domain.SentimentPositive:
			counts.Positive = n
		case domain.SentimentNeutral:
			counts.Neutral = n
		case domain.SentimentNegative:
			counts.Negative = n
		}
	}
	return counts, rows.Err()
}

// RawCategoryCounts scans posts directly for the window [start, end).
func (s *PostStore) RawCategoryCounts(ctx context.Context, start, end time.Time) (map[string]int, error) {
	query := `
		SELECT category, COUNT(*) AS count
		FROM posts
		WHERE ts >= $1 AND ts < $2
		GROUP BY category`

	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		result[category] = n
	}
	return result, rows.Err()
}

// RawSentimentSeries groups sentiment counts from raw posts by the period
// key of the given interval, for windows where no rollups exist.
func (s *PostStore) RawSentimentSeries(ctx context.Context, start, end time.Time, interval domain.Interval) ([]domain.TrendPoint, error) {
	query := fmt.Sprintf(`
		SELECT to_char(ts AT TIME ZONE 'UTC', '%s') AS period,
		       COUNT(*) FILTER (WHERE sentiment = 'positive') AS positive,
		       COUNT(*) FILTER (WHERE sentiment = 'neutral')  AS neutral,
		       COUNT(*) FILTER (WHERE sentiment = 'negative') AS negative
		FROM posts
		WHERE ts >= $1 AND ts < $2
		GROUP BY period
		ORDER BY period`, periodFormat(interval))

	points := []domain.TrendPoint{}
	err := s.db.SelectContext(ctx, &points, query, start, end)
	return points, err
}

// CategoryCounts groups all stored posts by category.
func (s *PostStore) CategoryCounts(ctx context.Context) ([]domain.NamedCount, error) {
	query := `SELECT category AS name, COUNT(*) AS count FROM posts GROUP BY category ORDER BY count DESC`

	counts := []domain.NamedCount{}
	err := s.db.SelectContext(ctx, &counts, query)
	return counts, err
}

// PlatformCounts groups all stored posts by platform.
func (s *PostStore) PlatformCounts(ctx context.Context) ([]domain.NamedCount, error) {
	query := `SELECT platform AS name, COUNT(*) AS count FROM posts GROUP BY platform ORDER BY count DESC`

	counts := []domain.NamedCount{}
	err := s.db.SelectContext(ctx, &counts, query)
	return counts, err
}

// PostsWithCoordinates returns the most recent geocoded posts for the map view.
func (s *PostStore) PostsWithCoordinates(ctx context.Context, limit int) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY ts DESC
		LIMIT $1`

	posts := []domain.Post{}
	err := s.db.SelectContext(ctx, &posts, query, limit)
	return posts, err
}
