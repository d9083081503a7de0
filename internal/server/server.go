// Package server exposes the read API and the websocket stream. It is a
// thin layer: parameter parsing and enum validation happen here, everything
// else is delegated to the query service and the hub.
package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"citypulse/internal/domain"
	"citypulse/internal/enrich"
	"citypulse/internal/hub"
	"citypulse/internal/service"
)

const (
	defaultPostLimit = 50
	defaultTrendDays = 7
	defaultMapLimit  = 200
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var validCategories = func() map[string]bool {
	set := make(map[string]bool, len(enrich.Categories))
	for _, category := range enrich.Categories {
		set[category] = true
	}
	return set
}()

var validSentiments = map[string]bool{
	domain.SentimentPositive: true,
	domain.SentimentNeutral:  true,
	domain.SentimentNegative: true,
}

type Server struct {
	queries *service.QueryService
	hub     *hub.Hub
	logger  *slog.Logger
}

func New(queries *service.QueryService, h *hub.Hub, logger *slog.Logger) *Server {
	return &Server{
		queries: queries,
		hub:     h,
		logger:  logger.With("component", "server"),
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.GET("/ws", s.handleWebSocket)

	api := router.Group("/api")
	{
		api.GET("/posts", s.handlePosts)
		api.GET("/trends", s.handleTrends)
		api.GET("/trends/history", s.handleHistoricalTrends)
		api.GET("/categories", s.handleCategories)
		api.GET("/platforms", s.handlePlatforms)
		api.GET("/map", s.handleMap)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": s.hub.Count()})
}

func (s *Server) handlePosts(c *gin.Context) {
	limit := defaultPostLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	var filter domain.PostFilter
	if platform, ok := c.GetQuery("platform"); ok {
		filter.Platform = &platform
	}
	if category, ok := c.GetQuery("category"); ok {
		if !validCategories[category] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + category})
			return
		}
		filter.Category = &category
	}
	if sentiment, ok := c.GetQuery("sentiment"); ok {
		if !validSentiments[sentiment] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sentiment: " + sentiment})
			return
		}
		filter.Sentiment = &sentiment
	}

	posts, err := s.queries.Posts(c.Request.Context(), limit, filter)
	if err != nil {
		s.logger.Error("failed to query posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) handleTrends(c *gin.Context) {
	days := defaultTrendDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = parsed
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	points, err := s.queries.TrendSeries(c.Request.Context(), start, end)
	if err != nil {
		s.logger.Error("failed to query trend series", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) handleHistoricalTrends(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return
	}

	interval := domain.Interval(c.DefaultQuery("interval", string(domain.IntervalDaily)))
	if !interval.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown interval: " + string(interval)})
		return
	}

	points, err := s.queries.HistoricalTrends(c.Request.Context(), start, end, interval)
	if err != nil {
		s.logger.Error("failed to query historical trends", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) handleCategories(c *gin.Context) {
	counts, err := s.queries.CategoryCounts(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to query category counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (s *Server) handlePlatforms(c *gin.Context) {
	counts, err := s.queries.PlatformCounts(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to query platform counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (s *Server) handleMap(c *gin.Context) {
	limit := defaultMapLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	posts, err := s.queries.MapPoints(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to query map points", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := hub.NewSubscriber(conn, s.logger)
	s.hub.Register(sub)

	go sub.WritePump(s.hub)
	go sub.ReadPump(s.hub)
}
