package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// NominatimConfig holds geocoder configuration.
type NominatimConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Nominatim resolves free-text place names against a nominatim-style search
// endpoint. Best-effort: every failure is reported as a miss, never an error.
// Results are cached per place name for the process lifetime.
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]*coordinates
}

type coordinates struct {
	lat float64
	lon float64
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func NewNominatim(cfg NominatimConfig, logger *slog.Logger) *Nominatim {
	return &Nominatim{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		logger:     logger.With("component", "geocoder"),
		cache:      make(map[string]*coordinates),
	}
}

// Resolve looks up a place name. ok is false when the place is unknown or
// the lookup failed; cached misses are not retried.
func (g *Nominatim) Resolve(ctx context.Context, place string) (lat, lon float64, ok bool) {
	g.mu.Lock()
	cached, hit := g.cache[place]
	g.mu.Unlock()
	if hit {
		if cached == nil {
			return 0, 0, false
		}
		return cached.lat, cached.lon, true
	}

	coords, err := g.lookup(ctx, place)
	if err != nil {
		g.logger.Warn("geocode failed", "place", place, "error", err)
	}

	g.mu.Lock()
	g.cache[place] = coords
	g.mu.Unlock()

	if coords == nil {
		return 0, 0, false
	}
	return coords.lat, coords.lon, true
}

func (g *Nominatim) lookup(ctx context.Context, place string) (*coordinates, error) {
	query := url.Values{}
	query.Set("q", place)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CityPulse/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude: %w", err)
	}

	return &coordinates{lat: lat, lon: lon}, nil
}
