package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/steam-inventory-client/internal/config"
	"github.com/Sternrassler/steam-inventory-client/pkg/client"
	"github.com/Sternrassler/steam-inventory-client/pkg/inventory"
	"github.com/Sternrassler/steam-inventory-client/pkg/logging"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		// Logger is not configured yet.
		bootLogger := logging.NewLogger("inventory-proxy")
		bootLogger.Fatal().Err(err).Msg("Failed to load config")
	}

	logger := logging.Setup(cfg.LoggingConfig("inventory-proxy"))

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("No Redis configured - provider cooldowns are not shared")
	}

	httpCfg := cfg.HTTPClientConfig()
	httpCfg.Redis = redisClient
	httpClient, err := client.New(httpCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create HTTP client")
	}
	defer httpClient.Close()

	srv := newServer(inventory.NewService(httpClient), redisClient, cfg.APIKey, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.routes(cfg.Server.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().
			Str("addr", cfg.Server.ListenAddr).
			Str("user_agent", cfg.Client.UserAgent).
			Msg("Starting inventory proxy")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
