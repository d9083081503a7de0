package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"citypulse/internal/domain"
)

const (
	SourceID = "twitter"
	Platform = "Twitter"
)

// defaultLocation is attached to tweets whose place cannot be resolved.
const defaultLocation = "Tamil Nadu"

// Config holds Twitter source configuration.
type Config struct {
	BaseURL        string
	BearerToken    string
	Query          string
	MaxResults     int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches recent tweets matching the configured query.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	bearerToken    string
	query          string
	maxResults     int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger

	mu      sync.Mutex
	sinceID string
}

// New creates a new Twitter source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		bearerToken:    cfg.BearerToken,
		query:          cfg.Query,
		maxResults:     cfg.MaxResults,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// FetchRecent fetches tweets newer than the last seen id.
func (s *Source) FetchRecent(ctx context.Context) ([]domain.RawPost, error) {
	resp, err := s.search(ctx)
	if err != nil {
		return nil, fmt.Errorf("search recent tweets: %w", err)
	}

	if resp.Meta.NewestID != "" {
		s.mu.Lock()
		s.sinceID = resp.Meta.NewestID
		s.mu.Unlock()
	}

	s.logger.Debug("fetched tweets", "count", len(resp.Data))

	return s.transform(resp.Data), nil
}

func (s *Source) search(ctx context.Context) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("query", s.query)
	query.Set("max_results", fmt.Sprintf("%d", s.maxResults))
	query.Set("tweet.fields", "created_at,geo")

	s.mu.Lock()
	if s.sinceID != "" {
		query.Set("since_id", s.sinceID)
	}
	s.mu.Unlock()

	requestURL := s.baseURL + "?" + query.Encode()

	var resp *SearchResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, requestURL)
		if err == nil {
			return resp, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, requestURL string) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.bearerToken)
	req.Header.Set("User-Agent", "CityPulse/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &searchResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transform(tweets []Tweet) []domain.RawPost {
	posts := make([]domain.RawPost, 0, len(tweets))

	for _, t := range tweets {
		createdAt, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			s.logger.Warn("failed to parse created_at",
				"tweet_id", t.ID,
				"created_at", t.CreatedAt,
			)
			continue
		}

		location := defaultLocation
		posts = append(posts, domain.RawPost{
			ID:        t.ID,
			Platform:  Platform,
			Content:   t.Text,
			Timestamp: createdAt,
			Location:  &location,
		})
	}

	return posts
}
