package enrich

import (
	"context"
	"log/slog"

	"citypulse/internal/domain"
)

// Classifier assigns a label to a piece of text. Implementations must be
// pure and side-effect free.
type Classifier interface {
	Classify(text string) string
}

// Geocoder resolves a place name to coordinates, best-effort.
type Geocoder interface {
	Resolve(ctx context.Context, place string) (lat, lon float64, ok bool)
}

// Enricher turns raw posts into enriched posts. It never fails: classifier
// trouble degrades to the default labels and a geocode miss just leaves the
// coordinates unset.
type Enricher struct {
	sentiment Classifier
	category  Classifier
	geocoder  Geocoder
	logger    *slog.Logger
}

func NewEnricher(sentiment, category Classifier, geocoder Geocoder, logger *slog.Logger) *Enricher {
	return &Enricher{
		sentiment: sentiment,
		category:  category,
		geocoder:  geocoder,
		logger:    logger.With("component", "enricher"),
	}
}

func (e *Enricher) Enrich(ctx context.Context, raw domain.RawPost) domain.Post {
	post := domain.Post{
		ID:        raw.ID,
		Platform:  raw.Platform,
		Content:   raw.Content,
		Timestamp: raw.Timestamp,
		Location:  raw.Location,
	}

	post.Sentiment = e.classify(e.sentiment, raw.Content, domain.SentimentNeutral)
	post.Category = e.classify(e.category, raw.Content, domain.CategoryOther)

	if raw.Location != nil && *raw.Location != "" && e.geocoder != nil {
		if lat, lon, ok := e.geocoder.Resolve(ctx, *raw.Location); ok {
			post.Latitude = &lat
			post.Longitude = &lon
		}
	}

	return post
}

func (e *Enricher) classify(c Classifier, text, fallback string) (label string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("classifier panicked", "panic", r)
			label = fallback
		}
	}()

	label = c.Classify(text)
	if label == "" {
		label = fallback
	}
	return label
}
