package domain

import (
	"fmt"
	"time"
)

// Interval identifies the width of an aggregation bucket.
type Interval string

const (
	IntervalHourly  Interval = "hourly"
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

func (i Interval) Valid() bool {
	switch i {
	case IntervalHourly, IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// Floor returns the canonical bucket start containing t, in UTC.
// Weekly buckets start on Monday per ISO 8601.
func (i Interval) Floor(t time.Time) time.Time {
	t = t.UTC()
	switch i {
	case IntervalDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case IntervalWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case IntervalMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(time.Hour)
	}
}

// PeriodKey formats t as the period label used to group series points.
// Must stay in sync with the to_char expressions in the trend store.
func (i Interval) PeriodKey(t time.Time) string {
	t = t.UTC()
	switch i {
	case IntervalHourly:
		return t.Format("2006-01-02 15:00:00")
	case IntervalWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-%02d", year, week)
	case IntervalMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// SentimentCounts is the count triple written to a trend bucket.
type SentimentCounts struct {
	Positive int
	Neutral  int
	Negative int
}

func (c SentimentCounts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

// Add increments the counter matching the sentiment label.
func (c *SentimentCounts) Add(sentiment string) {
	switch sentiment {
	case SentimentPositive:
		c.Positive++
	case SentimentNegative:
		c.Negative++
	default:
		c.Neutral++
	}
}

// TrendBucket is a stored sentiment rollup keyed by (bucket_start, interval_type).
type TrendBucket struct {
	BucketStart time.Time `db:"bucket_start"`
	Interval    Interval  `db:"interval_type"`
	Positive    int       `db:"positive_count"`
	Neutral     int       `db:"neutral_count"`
	Negative    int       `db:"negative_count"`
}

// CategoryBucket is a stored per-category rollup row.
type CategoryBucket struct {
	BucketStart time.Time `db:"bucket_start"`
	Interval    Interval  `db:"interval_type"`
	Category    string    `db:"category"`
	Count       int       `db:"count"`
}

// TrendPoint is one point of a served trend series. The JSON field names
// match the dashboard's chart payload.
type TrendPoint struct {
	Period   string `db:"period" json:"name"`
	Positive int    `db:"positive" json:"positive"`
	Neutral  int    `db:"neutral" json:"neutral"`
	Negative int    `db:"negative" json:"negative"`
}

// NamedCount is a grouped count keyed by category or platform.
type NamedCount struct {
	Name  string `db:"name" json:"name"`
	Count int    `db:"count" json:"value"`
}
