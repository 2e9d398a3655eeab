package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ratewatch/price-history/internal/bootstrap"
	"github.com/ratewatch/price-history/internal/scheduler"
	"github.com/ratewatch/price-history/pkg/config"
	"github.com/ratewatch/price-history/pkg/logger"
	"github.com/ratewatch/price-history/pkg/postgres"
	"github.com/ratewatch/price-history/pkg/redis"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(
		logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)),
	)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	postgresClient, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		appLogger.Error(err)
		os.Exit(1)
	}
	defer postgresClient.Close()

	if err := postgresClient.Ping(ctx); err != nil {
		appLogger.Error(err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(appLogger, &cfg.Redis)
	if err := redisClient.Connect(ctx); err != nil {
		appLogger.Error(err)
		os.Exit(1)
	}

	var b bootstrap.Bootstrap
	app, err := b.Init(bootstrap.BootstrapConfig{
		Config:   cfg,
		Postgres: postgresClient,
		Redis:    redisClient,
		Logger:   appLogger,
	})
	if err != nil {
		appLogger.Error(err)
		os.Exit(1)
	}
	defer app.Infrastructure.QuoteCache.Close()

	jobs := scheduler.New(appLogger)
	jobs.Register(&scheduler.Job{
		Name:     "tick-poll",
		Interval: cfg.Scheduler.TickPollInterval,
		Handler:  app.Usecase.Collector.PollOnce,
	})
	jobs.Register(&scheduler.Job{
		Name:     "finalize-sweep",
		Interval: cfg.Scheduler.FinalizeInterval,
		Handler: func(ctx context.Context) error {
			return app.Usecase.Collector.FinalizeDue(ctx, time.Now())
		},
	})
	jobs.Register(&scheduler.Job{
		Name:     "backfill-scan",
		Interval: cfg.Scheduler.BackfillScanInterval,
		Handler: func(ctx context.Context) error {
			app.Usecase.Backfill.RunOnce(ctx)
			return nil
		},
	})

	jobs.Start(ctx)

	appLogger.Info("price history service started",
		logger.NewField("app", cfg.App.Name),
		logger.NewField("environment", cfg.App.Environment),
		logger.NewField("tracked_items", len(cfg.Market.TrackedItems)),
		logger.NewField("timeframes", cfg.Market.EnabledTimeframes),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down price history service")
	jobs.Stop(cfg.Scheduler.ShutdownTimeout)
	appLogger.Info("price history service stopped")
}
