package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"citypulse/internal/config"
	"citypulse/internal/enrich"
	"citypulse/internal/hub"
	"citypulse/internal/publisher"
	"citypulse/internal/scheduler"
	"citypulse/internal/server"
	"citypulse/internal/service"
	"citypulse/internal/source/facebook"
	"citypulse/internal/source/twitter"
	"citypulse/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher
	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Initialize stores
	postStore := postgres.NewPostStore(db)
	trendStore := postgres.NewTrendStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Initialize enrichment
	geocoder := enrich.NewNominatim(enrich.NominatimConfig{
		BaseURL: cfg.Geocoder.BaseURL,
		Timeout: cfg.Geocoder.Timeout.Std(),
	}, logger)
	enricher := enrich.NewEnricher(
		enrich.NewKeywordSentiment(),
		enrich.NewKeywordCategory(),
		geocoder,
		logger,
	)

	// Initialize sources
	twitterSource := twitter.New(twitter.Config{
		BaseURL:        cfg.Sources.Twitter.BaseURL,
		BearerToken:    cfg.Sources.Twitter.BearerToken,
		Query:          cfg.Sources.Twitter.Query,
		MaxResults:     cfg.Sources.Twitter.MaxResults,
		Timeout:        cfg.Sources.Twitter.Timeout.Std(),
		MaxAttempts:    cfg.Sources.Twitter.Retry.MaxAttempts,
		InitialBackoff: cfg.Sources.Twitter.Retry.InitialBackoff.Std(),
		MaxBackoff:     cfg.Sources.Twitter.Retry.MaxBackoff.Std(),
	}, logger)
	facebookSource := facebook.New(facebook.Config{
		BaseURL:        cfg.Sources.Facebook.BaseURL,
		AccessToken:    cfg.Sources.Facebook.AccessToken,
		PageIDs:        cfg.Sources.Facebook.PageIDs,
		PageLimit:      cfg.Sources.Facebook.PageLimit,
		Timeout:        cfg.Sources.Facebook.Timeout.Std(),
		MaxAttempts:    cfg.Sources.Facebook.Retry.MaxAttempts,
		InitialBackoff: cfg.Sources.Facebook.Retry.InitialBackoff.Std(),
		MaxBackoff:     cfg.Sources.Facebook.Retry.MaxBackoff.Std(),
	}, logger)

	// Initialize hub and services
	broadcastHub := hub.New(logger)

	ingestService := service.NewIngestService(
		[]service.Source{twitterSource, facebookSource},
		enricher,
		postStore,
		broadcastHub,
		rabbitMQ,
		logger,
	)
	aggregator := service.NewAggregator(postStore, trendStore, txManager, logger)
	queryService := service.NewQueryService(postStore, trendStore, logger)

	ingestSched := scheduler.NewIngestScheduler(ingestService, cfg.Ingest.Interval.Std(), logger)
	aggregationSched := scheduler.NewAggregationScheduler(aggregator, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(queryService, broadcastHub, logger).Router(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting citypulse",
		"addr", cfg.Server.Addr,
		"ingest_interval", cfg.Ingest.Interval.Std(),
	)

	go func() {
		if err := ingestSched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ingest scheduler error", "error", err)
		}
	}()
	go func() {
		if err := aggregationSched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("aggregation scheduler error", "error", err)
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("citypulse stopped")
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
