package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"citypulse/internal/domain"
)

const (
	SourceID = "facebook"
	Platform = "Facebook"
)

// createdTimeLayout is the Graph API timestamp format.
const createdTimeLayout = "2006-01-02T15:04:05-0700"

// Config holds Facebook source configuration.
type Config struct {
	BaseURL        string
	AccessToken    string
	PageIDs        []string
	PageLimit      int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches recent posts from the configured pages.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	accessToken    string
	pageIDs        []string
	pageLimit      int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new Facebook source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		accessToken:    cfg.AccessToken,
		pageIDs:        cfg.PageIDs,
		pageLimit:      cfg.PageLimit,
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

// FetchRecent fetches the latest posts from every monitored page. When a
// page fails the posts gathered so far are returned alongside the error.
func (s *Source) FetchRecent(ctx context.Context) ([]domain.RawPost, error) {
	var posts []domain.RawPost

	for _, pageID := range s.pageIDs {
		resp, err := s.fetchPage(ctx, pageID)
		if err != nil {
			return posts, fmt.Errorf("fetch page %s: %w", pageID, err)
		}

		posts = append(posts, s.transform(resp.Data)...)

		s.logger.Debug("fetched page posts",
			"page_id", pageID,
			"posts", len(resp.Data),
			"total", len(posts),
		)
	}

	return posts, nil
}

func (s *Source) fetchPage(ctx context.Context, pageID string) (*PostsResponse, error) {
	query := url.Values{}
	query.Set("fields", "message,created_time,place")
	query.Set("limit", fmt.Sprintf("%d", s.pageLimit))
	query.Set("access_token", s.accessToken)

	requestURL := fmt.Sprintf("%s/%s/posts?%s", s.baseURL, pageID, query.Encode())

	var resp *PostsResponse
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

func (s *Source) doRequest(ctx context.Context, requestURL string) (*PostsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CityPulse/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var postsResp PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&postsResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &postsResp, nil
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

func (s *Source) transform(pagePosts []PagePost) []domain.RawPost {
	posts := make([]domain.RawPost, 0, len(pagePosts))

	for _, p := range pagePosts {
		// Link-only and photo-only posts carry no message.
		if p.Message == "" {
			continue
		}

		createdAt, err := time.Parse(createdTimeLayout, p.CreatedTime)
		if err != nil {
			s.logger.Warn("failed to parse created_time",
				"post_id", p.ID,
				"created_time", p.CreatedTime,
			)
			continue
		}

		post := domain.RawPost{
			ID:        p.ID,
			Platform:  Platform,
			Content:   p.Message,
			Timestamp: createdAt,
		}
		if p.Place != nil && p.Place.Name != "" {
			name := p.Place.Name
			post.Location = &name
		}

		posts = append(posts, post)
	}

	return posts
}
