// Package main is the entry point for the interview tracker server.
//
// main stays minimal. It:
//  1. reads configuration (.env, then environment variables)
//  2. creates dependencies (logger, store, event publisher)
//  3. starts the server
//
// Everything else lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/interview-tracker/internal/config"
	"github.com/sakif/interview-tracker/internal/events"
	"github.com/sakif/interview-tracker/internal/server"
	"github.com/sakif/interview-tracker/internal/storage"
)

// connectTimeout bounds how long startup waits for the store and Redis.
const connectTimeout = 10 * time.Second

func main() {
	// === 1. CONFIGURATION ===
	// Bootstrap logger until the configured one exists.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger = cfg.NewLogger()
	slog.SetDefault(logger)

	// === 3. STORE ===
	// Fail fast: the server never starts without a reachable store.
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	repo, target, err := storage.Open(ctx, cfg.StoreURL)
	cancel()
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("store connected", slog.String("backend", string(target.Backend)))

	// === 4. EVENTS ===
	// Redis is optional. Without REDIS_URL, remark events are dropped.
	var publisher events.Publisher = events.Nop{}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", slog.String("error", err.Error()))
			repo.Close()
			os.Exit(1)
		}
		redisPublisher := events.NewRedisPublisher(rdb)
		defer redisPublisher.Close()
		publisher = redisPublisher
		logger.Info("redis connected, publishing remark events", slog.String("channel", events.ChannelRemarkChanged))
	}

	// === 5. SERVER ===
	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSOrigins:        cfg.CORSOrigins,
		RequestLogging:     !cfg.Production,
		StoreName:          string(target.Backend),
	}, logger, repo, publisher)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		repo.Close()
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
