package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/activity"
	"github.com/earningbee/bee-engine/internal/api"
	"github.com/earningbee/bee-engine/internal/auth"
	"github.com/earningbee/bee-engine/internal/cache"
	"github.com/earningbee/bee-engine/internal/catalog"
	"github.com/earningbee/bee-engine/internal/cleanup"
	"github.com/earningbee/bee-engine/internal/config"
	"github.com/earningbee/bee-engine/internal/logging"
	"github.com/earningbee/bee-engine/internal/recommend"
	"github.com/earningbee/bee-engine/internal/services"
	"github.com/earningbee/bee-engine/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("earningbee stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting earningbee",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Catalog
	catalogs := catalog.NewLoader(logger)
	if err := catalogs.Load(cfg.Catalog.Path); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	registry := services.NewRegistry(5 * time.Second)

	// Storage
	repo, err := openRepository(initCtx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer repo.Close()
	registry.Register("storage", repo)

	// Recommendation cache
	var resultCache cache.Cache = cache.Noop{}
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.CacheTTL,
		})
		if err != nil {
			return err
		}
		resultCache = rc
		registry.Register("cache", rc)
		logger.Info("redis cache connected", zap.String("address", cfg.Redis.Address))
	}
	defer resultCache.Close()

	engine := recommend.NewEngine(catalogs, resultCache, logger)
	authService := auth.NewService(repo, cfg.Auth.SessionTTL, logger)
	scanner := auth.NewSimulatedScanner(
		auth.WithSuccessRate(cfg.Auth.ScanSuccessRate),
		auth.WithTick(cfg.Auth.ScanTick),
	)

	var limiter *api.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleaner := cleanup.NewCleaner(repo, cfg.Cleanup.Interval, logger)
	cleaner.Start(ctx)

	server := api.NewServer(cfg.Server, api.Deps{
		Engine:   engine,
		Auth:     authService,
		Scanner:  scanner,
		Activity: activity.NewTracker(repo, logger),
		Repo:     repo,
		Health:   registry,
	}, limiter, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// SIGHUP reloads the catalog; a rejected file keeps the current one
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

wait:
	for {
		select {
		case err := <-serverErr:
			return fmt.Errorf("HTTP server error: %w", err)
		case sig := <-signals:
			if sig != syscall.SIGHUP {
				break wait
			}
			if err := catalogs.Load(cfg.Catalog.Path); err != nil {
				logger.Warn("catalog reload failed, keeping current catalog", zap.Error(err))
			}
		}
	}

	logger.Info("shutting down gracefully...")

	// Stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("earningbee stopped")
	return nil
}

// openRepository returns the Postgres repository when a database is
// configured, running pending migrations first, and the in-memory one
// otherwise.
func openRepository(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (storage.Repository, error) {
	if !cfg.Enabled {
		logger.Warn("database disabled, user state is kept in memory")
		return storage.NewMemoryRepository(), nil
	}

	logger.Info("running database migrations", zap.String("dir", cfg.MigrationsDir))
	if err := storage.MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database repository: %w", err)
	}
	logger.Info("database connected successfully")
	return repo, nil
}
