package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bullseye-tracker/stats-api/internal/config"
	"github.com/bullseye-tracker/stats-api/internal/handlers"
	"github.com/bullseye-tracker/stats-api/internal/logic"
	"github.com/bullseye-tracker/stats-api/internal/store"
	"github.com/bullseye-tracker/stats-api/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	sugar.Infow("Record store ready", "url", redactURL(cfg.DatabaseURL))

	handlerCfg := handlers.Config{
		Database: db,
		APIKey:   cfg.APIKey,
		Logger:   logger,
	}

	var archiver logic.RoundArchiver
	if cfg.ClickHouseURL != "" {
		conn, err := openClickHouse(ctx, cfg.ClickHouseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		pool := worker.NewPool(worker.PoolConfig{
			WorkerCount:   cfg.WorkerCount,
			QueueSize:     cfg.QueueSize,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
			ClickHouse:    conn,
			Logger:        logger,
		})
		pool.Start(context.Background())
		defer pool.Stop()

		archiver = pool
		handlerCfg.Archive = pool
		handlerCfg.ClickHouse = conn
	} else {
		sugar.Info("CLICKHOUSE_URL not set, round archive disabled")
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			sugar.Warnw("Redis not reachable, rate limiter fails open until it is", "error", err)
		}
		handlerCfg.RateLimiter = handlers.NewRedisRateLimiter(client, cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	} else {
		sugar.Info("REDIS_URL not set, ingest rate limiting disabled")
	}

	handlerCfg.Stats = logic.NewStatsService(db, db, db, logger)
	handlerCfg.Identity = logic.NewIdentityService(db, db, db, logger)
	handlerCfg.Ingest = logic.NewIngestService(logic.IngestConfig{
		Matches:  db,
		Players:  db,
		Archiver: archiver,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handlers.NewRouter(handlers.New(handlerCfg), cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("HTTP server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		sugar.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	sugar.Info("HTTP server stopped")
	return nil
}

func openClickHouse(ctx context.Context, dsn string) (driver.Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse url: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	if err := worker.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// redactURL masks the password so credentials never reach logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
