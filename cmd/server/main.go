package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"housefinder/server/config"
	"housefinder/server/internal/analytics"
	"housefinder/server/internal/api"
	"housefinder/server/internal/cache"
	"housefinder/server/internal/database"
	"housefinder/server/internal/deprivation"
	"housefinder/server/internal/enrichment"
	"housefinder/server/internal/geocoding"
	"housefinder/server/internal/listing"
	"housefinder/server/internal/postcode"
	"housefinder/server/internal/processor"
	"housefinder/server/internal/queue"
	"housefinder/server/internal/view"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Warn("Failed to load .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.Server.LogLevel).Warn("Unknown log level, keeping info")
	}

	// Lookup memo store: sqlite when a path is configured, memory otherwise
	var (
		store cache.Store = cache.NewMemoryStore()
		db    *database.Database
	)
	if cfg.Cache.Path != "" {
		logger.Infof("Using lookup cache database at: %s", cfg.Cache.Path)

		db, err = database.NewDatabase(cfg.Cache.Path)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database")
		}
		defer db.Close()

		logger.Info("Running database migrations...")
		if err := db.RunMigrations(); err != nil {
			logger.WithError(err).Fatal("Failed to run database migrations")
		}
		store = db
	}

	timeout := cfg.LookupTimeout()
	fetcher := listing.NewFetcher(logger, cfg.Listing.UserAgent, cfg.Listing.NotFoundPhrase, timeout)
	fetcher.SetRateLimit(cfg.Listing.RequestsPerSecond)
	enricher := enrichment.NewEnricher(logger,
		geocoding.NewGeocoder(logger, store, cfg.Lookups.GeocoderURL, cfg.Listing.UserAgent, timeout),
		deprivation.NewClient(logger, store, cfg.Lookups.DeprivationURL, cfg.Listing.UserAgent, timeout),
		postcode.NewDeriver(logger, store),
	)

	// The random listing pool is scraped once per process
	logger.Info("Loading random listing pool...")
	pool, err := listing.LoadPool(context.Background(), fetcher, cfg.Listing.SearchURL, cfg.Listing.BaseURL)
	if err != nil {
		logger.WithError(err).Error("Failed to load listing pool, random picks are disabled")
	}

	var (
		tracker     *analytics.Tracker
		eventQueue  *queue.EventQueue
		batchWriter *processor.BatchProcessor
	)
	if cfg.Analytics.Enabled {
		eventQueue = queue.NewEventQueue(cfg.Analytics.QueueSize, logger)
		tracker = analytics.NewTracker(logger, eventQueue)
		if db != nil {
			batchWriter = processor.NewBatchProcessor(db.GetDB(), eventQueue, cfg, logger)
			batchWriter.Start()
		}
		eventQueue.Start()
	}

	composer := view.NewComposer(logger, fetcher, pool, enricher, tracker)
	handler := api.NewHandler(composer, tracker, pool, cfg.Listing.DefaultURL, logger)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := api.SetupRoutes(router, handler, cfg.Server.AllowedOrigins); err != nil {
		logger.WithError(err).Fatal("Failed to set up routes")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	if batchWriter != nil {
		batchWriter.Stop()
	} else if eventQueue != nil {
		if err := eventQueue.Close(); err != nil {
			logger.WithError(err).Error("Failed to close event queue")
		}
	}
}
