package storefront

import (
	"context"
	"time"

	"github.com/marginly/marginly-backend/pkg/config"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/metrics"
)

// OrderSource is the subset of the client the importer depends on.
type OrderSource interface {
	FetchOrdersWithCost(ctx context.Context, since *time.Time) ([]CostedOrder, error)
}

// Factory builds a client for one store's credentials.
type Factory func(domain, accessToken string) (OrderSource, error)

// NewFactory returns a Factory sharing API version, timeout and metrics.
func NewFactory(cfg config.StorefrontConfig, logg *logger.Logger, sm *metrics.SyncMetrics) Factory {
	return func(domain, accessToken string) (OrderSource, error) {
		client, err := New(Config{
			Domain:      domain,
			AccessToken: accessToken,
			APIVersion:  cfg.APIVersion,
			Timeout:     cfg.Timeout,
			BaseURL:     cfg.BaseURLOverride,
		}, logg, sm)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
