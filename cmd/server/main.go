package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wordle-tracker/internal/config"
	"github.com/wordle-tracker/internal/handler"
	"github.com/wordle-tracker/internal/ingest"
	"github.com/wordle-tracker/internal/kafka"
	"github.com/wordle-tracker/internal/leaderboard"
	"github.com/wordle-tracker/internal/postgres"
	"github.com/wordle-tracker/internal/redis"
	"github.com/wordle-tracker/internal/service"
	"github.com/wordle-tracker/internal/stats"
	"github.com/wordle-tracker/internal/websocket"
	"github.com/wordle-tracker/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize Redis cache
	var cache *redis.Cache
	if cfg.Cache.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		cache, err = redis.NewCache(&cfg.Redis, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			logger.Info("connected to Redis")
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize stats engine and services
	engine := stats.NewEngine(cfg.Scoring.PointValues())
	boards := leaderboard.New(repo, engine)

	statsService := service.NewStatsService(repo, engine, boards, cacheOrNil(cache), cfg.Stats, logger)
	statsService.SetHub(wsHub)

	pipeline := ingest.New(repo, invalidatorOrNil(cache), wsHub, logger)

	// Initialize refresh worker
	refreshWorker := worker.NewRefreshWorker(repo, statsService, &cfg.Refresh, logger)
	if cfg.Refresh.Enabled {
		refreshWorker.Start()
	}

	// Initialize Kafka consumer for the chat-message event stream
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, pipeline, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(statsService, pipeline, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop refresh worker
	refreshWorker.Stop()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}

// cacheOrNil converts a possibly-nil *redis.Cache into the service's cache
// interface without producing a non-nil interface around a nil pointer.
func cacheOrNil(cache *redis.Cache) service.Cache {
	if cache == nil {
		return nil
	}
	return cache
}

func invalidatorOrNil(cache *redis.Cache) ingest.Invalidator {
	if cache == nil {
		return nil
	}
	return cache
}
