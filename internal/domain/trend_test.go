package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalValid(t *testing.T) {
	assert.True(t, IntervalHourly.Valid())
	assert.True(t, IntervalDaily.Valid())
	assert.True(t, IntervalWeekly.Valid())
	assert.True(t, IntervalMonthly.Valid())
	assert.False(t, Interval("yearly").Valid())
	assert.False(t, Interval("").Valid())
}

func TestIntervalFloor(t *testing.T) {
	// Wednesday 2025-06-04 10:37:12 UTC
	ts := time.Date(2025, 6, 4, 10, 37, 12, 0, time.UTC)

	tests := []struct {
		name     string
		interval Interval
		in       time.Time
		want     time.Time
	}{
		{
			name:     "hourly truncates to hour",
			interval: IntervalHourly,
			in:       ts,
			want:     time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "hourly keeps exact hour",
			interval: IntervalHourly,
			in:       time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
			want:     time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			name:     "daily truncates to midnight",
			interval: IntervalDaily,
			in:       ts,
			want:     time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly floors to monday",
			interval: IntervalWeekly,
			in:       ts,
			want:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly sunday belongs to preceding monday",
			interval: IntervalWeekly,
			in:       time.Date(2025, 6, 8, 23, 59, 0, 0, time.UTC),
			want:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly monday is its own floor",
			interval: IntervalWeekly,
			in:       time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			want:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly floors to first of month",
			interval: IntervalMonthly,
			in:       ts,
			want:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.interval.Floor(tt.in))
		})
	}
}

func TestIntervalFloorConvertsToUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 00:30 IST on June 5 is 19:00 UTC on June 4.
	in := time.Date(2025, 6, 5, 0, 30, 0, 0, ist)

	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), IntervalDaily.Floor(in))
}

func TestIntervalPeriodKey(t *testing.T) {
	ts := time.Date(2025, 6, 4, 10, 37, 12, 0, time.UTC)

	assert.Equal(t, "2025-06-04 10:00:00", IntervalHourly.PeriodKey(ts))
	assert.Equal(t, "2025-06-04", IntervalDaily.PeriodKey(ts))
	assert.Equal(t, "2025-23", IntervalWeekly.PeriodKey(ts))
	assert.Equal(t, "2025-06", IntervalMonthly.PeriodKey(ts))
}

func TestIntervalPeriodKeyWeeklyYearBoundary(t *testing.T) {
	// 2024-12-30 is a Monday that falls in ISO week 1 of 2025.
	ts := time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-01", IntervalWeekly.PeriodKey(ts))
}

func TestSentimentCountsAdd(t *testing.T) {
	var c SentimentCounts

	c.Add(SentimentPositive)
	c.Add(SentimentNegative)
	c.Add(SentimentNeutral)
	c.Add("unknown")

	assert.Equal(t, 1, c.Positive)
	assert.Equal(t, 1, c.Negative)
	assert.Equal(t, 2, c.Neutral)
	assert.Equal(t, 4, c.Total())
}
