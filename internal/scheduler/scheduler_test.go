package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"citypulse/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type countingIngestor struct {
	runs atomic.Int32
	err  error
}

func (i *countingIngestor) Run(ctx context.Context) (*domain.IngestStats, error) {
	i.runs.Add(1)
	if i.err != nil {
		return nil, i.err
	}
	return &domain.IngestStats{}, nil
}

func TestIngestSchedulerRunsImmediatelyAndOnInterval(t *testing.T) {
	ingestor := &countingIngestor{}
	s := NewIngestScheduler(ingestor, 20*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// One immediate tick plus at least two interval ticks.
	assert.GreaterOrEqual(t, ingestor.runs.Load(), int32(3))
}

func TestIngestSchedulerKeepsGoingAfterTickError(t *testing.T) {
	ingestor := &countingIngestor{err: errors.New("source down")}
	s := NewIngestScheduler(ingestor, 20*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, ingestor.runs.Load(), int32(2))
}

func TestIngestSchedulerStopsOnCancel(t *testing.T) {
	ingestor := &countingIngestor{}
	s := NewIngestScheduler(ingestor, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	// Give the immediate tick a chance to run, then stop.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	assert.Equal(t, int32(1), ingestor.runs.Load())
}

type recordingAggregator struct {
	windowStart time.Time
	windowEnd   time.Time
	interval    domain.Interval
	called      bool
}

func (a *recordingAggregator) Run(ctx context.Context, windowStart, windowEnd time.Time, interval domain.Interval) error {
	a.windowStart = windowStart
	a.windowEnd = windowEnd
	a.interval = interval
	a.called = true
	return nil
}

func TestAggregationSchedulerWindow(t *testing.T) {
	aggregator := &recordingAggregator{}
	s := NewAggregationScheduler(aggregator, testLogger())

	before := time.Now().UTC().Truncate(time.Hour)
	s.runHourly()
	after := time.Now().UTC().Truncate(time.Hour)

	assert.True(t, aggregator.called)
	assert.Equal(t, domain.IntervalHourly, aggregator.interval)
	assert.Equal(t, aggregator.windowEnd.Add(-time.Hour), aggregator.windowStart)
	assert.False(t, aggregator.windowEnd.Before(before))
	assert.False(t, aggregator.windowEnd.After(after))
}

func TestAggregationSchedulerStopsOnCancel(t *testing.T) {
	s := NewAggregationScheduler(&recordingAggregator{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
