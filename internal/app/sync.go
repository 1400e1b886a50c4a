// Package app assembles the sync stack shared by the API and the sync worker.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marginly/marginly-backend/internal/adspend"
	"github.com/marginly/marginly-backend/internal/analytics"
	"github.com/marginly/marginly-backend/internal/dashboard"
	"github.com/marginly/marginly-backend/internal/orders"
	"github.com/marginly/marginly-backend/internal/ordersync"
	"github.com/marginly/marginly-backend/internal/rollups"
	"github.com/marginly/marginly-backend/internal/storefront"
	"github.com/marginly/marginly-backend/internal/stores"
	"github.com/marginly/marginly-backend/pkg/config"
	"github.com/marginly/marginly-backend/pkg/db"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/metrics"
	"github.com/marginly/marginly-backend/pkg/pubsub"
	"github.com/marginly/marginly-backend/pkg/redis"
	"github.com/marginly/marginly-backend/pkg/security"
)

type StackParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	Registerer prometheus.Registerer
}

// SyncStack holds the wired services. Close releases the optional Pub/Sub client.
type SyncStack struct {
	Stores    stores.Service
	Rollups   *rollups.Aggregator
	Dashboard *dashboard.Service
	Importer  *ordersync.Importer

	pubsub *pubsub.Client
}

func NewSyncStack(ctx context.Context, p StackParams) (*SyncStack, error) {
	if p.Config == nil || p.Logger == nil || p.DB == nil || p.Redis == nil {
		return nil, errors.New("config, logger, db and redis are required")
	}
	cfg, logg := p.Config, p.Logger
	reg := p.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	cipher, err := security.NewCipherFromHex(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("credential cipher: %w", err)
	}

	conn := p.DB.DB()
	storeRepo := stores.NewRepository(conn)
	storeSvc, err := stores.NewService(storeRepo, cipher, logg)
	if err != nil {
		return nil, err
	}

	orderRepo := orders.NewRepository(conn)
	aggregator := rollups.NewAggregator(orderRepo, rollups.NewRepository(conn))
	syncMetrics := metrics.NewSyncMetrics(reg)

	stack := &SyncStack{
		Stores:    storeSvc,
		Rollups:   aggregator,
		Dashboard: dashboard.NewService(storeRepo, aggregator, orderRepo),
	}

	params := ordersync.Params{
		Credentials: storeSvc,
		Storefront:  storefront.NewFactory(cfg.Storefront, logg, syncMetrics),
		Orders:      orderRepo,
		Rollups:     aggregator,
		Locks:       p.Redis,
		Metrics:     syncMetrics,
		Logger:      logg,
		Options: ordersync.Options{
			Lookback:    cfg.Sync.Lookback,
			LockTTL:     cfg.Sync.LockTTL,
			PassTimeout: cfg.Sync.PassTimeout,
		},
	}

	if cfg.Ads.Enabled() {
		adsClient, err := adspend.NewClient(adspend.ConfigFromEnv(cfg.Ads), syncMetrics)
		if err != nil {
			return nil, fmt.Errorf("ads client: %w", err)
		}
		adImporter, err := adspend.NewImporter(storeSvc, adsClient, adspend.NewRepository(conn), aggregator, logg)
		if err != nil {
			return nil, err
		}
		params.AdSpend = adImporter
	} else {
		logg.Info(ctx, "google ads not configured; ad spend import disabled")
	}

	if cfg.FeatureFlags.PublishEvents {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.ModePublish, logg)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		publisher, err := analytics.NewSyncPublisher(client.SyncPublisher())
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		stack.pubsub = client
		params.Publisher = publisher
	}

	stack.Importer, err = ordersync.NewImporter(params)
	if err != nil {
		stack.Close()
		return nil, err
	}
	return stack, nil
}

func (s *SyncStack) Close() error {
	if s == nil || s.pubsub == nil {
		return nil
	}
	return s.pubsub.Close()
}
