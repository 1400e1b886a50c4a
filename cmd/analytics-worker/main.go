package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/marginly/marginly-backend/internal/analytics"
	"github.com/marginly/marginly-backend/internal/analytics/worker"
	"github.com/marginly/marginly-backend/internal/analytics/writer"
	"github.com/marginly/marginly-backend/internal/orders"
	"github.com/marginly/marginly-backend/internal/rollups"
	"github.com/marginly/marginly-backend/pkg/bigquery"
	"github.com/marginly/marginly-backend/pkg/config"
	"github.com/marginly/marginly-backend/pkg/db"
	"github.com/marginly/marginly-backend/pkg/events/idempotency"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/pubsub"
	"github.com/marginly/marginly-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "analytics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "analytics-worker"

	logg = logger.New(logger.Options{
		ServiceName: "analytics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.ModeSubscribe, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "failed to close bigquery client", err)
		}
	}()

	subscription := pubsubClient.SyncSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "sync subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	rowWriter, err := writer.New(bqClient, writer.Config{DailyMetricsTable: cfg.BigQuery.DailyMetricsTable})
	requireResource(ctx, logg, "analytics bigquery writer", err)

	conn := dbClient.DB()
	aggregator := rollups.NewAggregator(orders.NewRepository(conn), rollups.NewRepository(conn))
	exporter := analytics.NewExporter(aggregator, rowWriter, logg)

	service, err := worker.NewService(subscription, exporter, manager, logg)
	requireResource(ctx, logg, "analytics worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
