package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotwise/internal/caching"
	"slotwise/internal/config"
	"slotwise/internal/handlers"
	"slotwise/internal/jobs/background"
	"slotwise/internal/metrics"
	"slotwise/internal/middleware"
	"slotwise/internal/repositories"
	"slotwise/internal/services"
	"slotwise/pkg/database"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file")
	once := flag.Bool("once", false, "run one repartition pass and exit")
	dryRun := flag.Bool("dry-run", false, "plan moves without executing them (overrides config)")
	seedLocation := flag.String("seed-levels", "", "seed default level configs for a location id and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "slotwise: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.Repartition.DryRun = true
	}

	logger := cfg.Logging.NewLogger()
	slog.SetDefault(logger)

	if *seedLocation != "" {
		if err := seedLevels(cfg, *seedLocation, logger); err != nil {
			logger.Error("failed to seed level configs", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *once, logger); err != nil {
		logger.Error("slotwise exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, once bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	namer := cfg.Levels.Namer()
	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheus(registry, "slotwise")

	locationRepo := repositories.NewLocationRepo(pool)
	levelConfigRepo := repositories.NewLevelConfigRepo(pool)
	inventoryRepo := repositories.NewInventoryRepo(pool)
	auditRepo := repositories.NewAuditLogsRepo(pool)

	analyzer := services.NewOccupancyAnalyzer(locationRepo, levelConfigRepo, inventoryRepo, namer, logger)
	planner := services.NewRepartitionPlanner(namer, logger)
	executor := services.NewMoveExecutor(pool, auditRepo, namer, logger)

	opts := []services.RepartitionOption{services.WithMetrics(recorder), services.WithLogger(logger)}
	schedulerOpts := []background.SchedulerOption{background.WithSchedulerLogger(logger)}
	var redisPinger handlers.Pinger
	var summaryCache caching.SummaryCache

	if cfg.Redis.Enabled {
		client, err := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return err
		}
		defer closeRedis(client, logger)

		summaryCache = caching.NewSummaryCache(client)
		lock := caching.NewLocationLock(client, caching.WithLockTTL(cfg.Repartition.LockTTL), caching.WithLockLogger(logger))
		opts = append(opts, services.WithLocationGuard(lock))
		schedulerOpts = append(schedulerOpts, background.WithSummaryCache(summaryCache))
		redisPinger = summaryCache
	}

	repartitionSvc := services.NewRepartitionService(locationRepo, analyzer, planner, executor, opts...)

	scheduler, err := background.NewJobScheduler(repartitionSvc, cfg.Repartition.Interval, cfg.Repartition.DryRun, schedulerOpts...)
	if err != nil {
		return err
	}

	if once {
		defer scheduler.Stop()
		summary, err := scheduler.RunOnce(ctx, cfg.Repartition.DryRun)
		if summary != nil {
			logger.Info("repartition pass complete", "run_id", summary.RunID, "dry_run", summary.DryRun,
				"processed_locations", summary.ProcessedLocations, "total_moves", summary.TotalMoves, "errors", len(summary.Errors))
		}
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover(), middleware.RequestLogger(logger), middleware.VersionHeader(version))
	handlers.NewHealthHandlers(handlers.PingFunc(pool.Ping), redisPinger, scheduler, registry, version).Register(e)
	handlers.NewJobHandlers(scheduler, summaryCache).Register(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("starting ops server", "addr", addr, "version", version)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", "error", err)
			stop()
		}
	}()

	scheduler.Start()
	if cfg.Repartition.RunOnStart {
		go scheduler.RunOnce(ctx, cfg.Repartition.DryRun)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops server shutdown failed", "error", err)
	}
	return scheduler.Stop()
}

func seedLevels(cfg *config.Config, rawID string, logger *slog.Logger) error {
	locationID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid location id %q: %w", rawID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := services.NewLevelConfigService(repositories.NewLocationRepo(pool), repositories.NewLevelConfigRepo(pool), logger)
	if err := svc.EnsureDefaults(ctx, locationID); err != nil {
		return err
	}
	logger.Info("level configs seeded", "location_id", locationID)
	return nil
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("failed to close redis client", "error", err)
	}
}
