package service

import (
	"context"
	"log/slog"
	"time"

	"citypulse/internal/domain"
)

// IngestService runs one ingestion tick: fetch from every source, enrich,
// store, and hand the newly inserted posts to the broadcaster and publisher.
// Source failures are isolated; a failing source contributes whatever it
// managed to return before the error.
type IngestService struct {
	sources     []Source
	enricher    Enricher
	posts       PostStore
	broadcaster Broadcaster
	publisher   Publisher
	logger      *slog.Logger
}

func NewIngestService(
	sources []Source,
	enricher Enricher,
	posts PostStore,
	broadcaster Broadcaster,
	publisher Publisher,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		sources:     sources,
		enricher:    enricher,
		posts:       posts,
		broadcaster: broadcaster,
		publisher:   publisher,
		logger:      logger.With("component", "ingest"),
	}
}

func (s *IngestService) Run(ctx context.Context) (*domain.IngestStats, error) {
	startTime := time.Now()
	stats := &domain.IngestStats{}

	raw := s.fetchAll(ctx, stats)
	stats.Fetched = len(raw)

	newPosts := make([]domain.Post, 0, len(raw))
	for _, r := range raw {
		post := s.enricher.Enrich(ctx, r)

		inserted, err := s.posts.Insert(ctx, &post)
		if err != nil {
			s.logger.Error("failed to store post", "post_id", post.ID, "error", err)
			stats.StoreErrors++
			continue
		}
		if !inserted {
			stats.Duplicates++
			continue
		}

		stats.New++
		newPosts = append(newPosts, post)
	}

	if len(newPosts) > 0 {
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(newPosts)
		}
		if s.publisher != nil {
			if err := s.publisher.PublishBatch(ctx, newPosts); err != nil {
				s.logger.Error("failed to publish batch", "count", len(newPosts), "error", err)
			} else {
				stats.Published = len(newPosts)
			}
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("ingest tick completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"duplicates", stats.Duplicates,
		"source_errors", stats.SourceErrors,
		"store_errors", stats.StoreErrors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *IngestService) fetchAll(ctx context.Context, stats *domain.IngestStats) []domain.RawPost {
	var all []domain.RawPost
	for _, source := range s.sources {
		posts, err := source.FetchRecent(ctx)
		if err != nil {
			s.logger.Error("source fetch failed", "source", source.ID(), "error", err)
			stats.SourceErrors++
		}
		all = append(all, posts...)
	}
	return all
}
