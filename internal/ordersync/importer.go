// Package ordersync runs order sync passes: fetch new storefront orders,
// persist them with profit, refresh the daily rollups and advance the store
// watermark.
package ordersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/marginly/marginly-backend/internal/adspend"
	"github.com/marginly/marginly-backend/internal/orders"
	"github.com/marginly/marginly-backend/internal/storefront"
	"github.com/marginly/marginly-backend/internal/stores"
	"github.com/marginly/marginly-backend/pkg/db"
	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/enums"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/metrics"
	"github.com/marginly/marginly-backend/pkg/redis"
)

const (
	defaultLookback    = 30 * 24 * time.Hour
	defaultLockTTL     = 10 * time.Minute
	defaultPassTimeout = 5 * time.Minute
	orderConstraint    = "orders_upstream_order_id_key"
)

type credentialStore interface {
	Get(ctx context.Context, storeID, ownerID uuid.UUID) (*stores.Credentials, error)
	SetWatermark(ctx context.Context, storeID uuid.UUID, at time.Time) error
}

type orderStore interface {
	ExistsByUpstreamID(ctx context.Context, upstreamID string) (bool, error)
	Create(ctx context.Context, order *models.Order) error
}

type recomputer interface {
	Recompute(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.DailyMetric, error)
}

// AdSpendImporter pulls ad spend for a store. Failures never fail a pass.
type AdSpendImporter interface {
	Import(ctx context.Context, storeID uuid.UUID, start, end time.Time) (adspend.Result, error)
}

// Publisher announces completed passes.
type Publisher interface {
	PublishSyncCompleted(ctx context.Context, event Completed) error
}

// Result is what a caller learns from a pass.
type Result struct {
	ProcessedCount int       `json:"processedCount"`
	TotalOrders    int       `json:"totalOrders"`
	Since          time.Time `json:"since"`
	SyncedAt       time.Time `json:"syncedAt"`
}

// Completed describes a finished pass for downstream consumers.
type Completed struct {
	StoreID        uuid.UUID
	OwnerID        uuid.UUID
	Trigger        enums.SyncTrigger
	Since          time.Time
	SyncedAt       time.Time
	ProcessedCount int
	TotalOrders    int
}

type Options struct {
	Lookback    time.Duration
	LockTTL     time.Duration
	PassTimeout time.Duration
}

type Params struct {
	Credentials credentialStore
	Storefront  storefront.Factory
	Orders      orderStore
	Rollups     recomputer
	AdSpend     AdSpendImporter
	Locks       redis.LockStore
	Publisher   Publisher
	Metrics     *metrics.SyncMetrics
	Logger      *logger.Logger
	Options     Options
}

type Importer struct {
	creds     credentialStore
	factory   storefront.Factory
	orders    orderStore
	rollups   recomputer
	adSpend   AdSpendImporter
	lock      storeLock
	publisher Publisher
	metrics   *metrics.SyncMetrics
	logg      *logger.Logger
	opts      Options
	group     singleflight.Group
	now       func() time.Time
}

func NewImporter(p Params) (*Importer, error) {
	switch {
	case p.Credentials == nil:
		return nil, errors.New("credential store required")
	case p.Storefront == nil:
		return nil, errors.New("storefront factory required")
	case p.Orders == nil:
		return nil, errors.New("order store required")
	case p.Rollups == nil:
		return nil, errors.New("rollups required")
	case p.Logger == nil:
		return nil, errors.New("logger required")
	}
	opts := p.Options
	if opts.Lookback <= 0 {
		opts.Lookback = defaultLookback
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.PassTimeout <= 0 {
		opts.PassTimeout = defaultPassTimeout
	}
	return &Importer{
		creds:     p.Credentials,
		factory:   p.Storefront,
		orders:    p.Orders,
		rollups:   p.Rollups,
		adSpend:   p.AdSpend,
		lock:      storeLock{store: p.Locks, ttl: opts.LockTTL},
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logg:      p.Logger,
		opts:      opts,
		now:       time.Now,
	}, nil
}

// Sync runs a caller-triggered pass for a store the caller owns.
func (i *Importer) Sync(ctx context.Context, storeID, ownerID uuid.UUID) (Result, error) {
	return i.run(ctx, storeID, ownerID, enums.SyncTriggerManual)
}

// SyncScheduled runs a pass on behalf of the scheduler.
func (i *Importer) SyncScheduled(ctx context.Context, storeID, ownerID uuid.UUID) (Result, error) {
	return i.run(ctx, storeID, ownerID, enums.SyncTriggerScheduled)
}

func (i *Importer) run(ctx context.Context, storeID, ownerID uuid.UUID, trigger enums.SyncTrigger) (Result, error) {
	// Ownership is checked per caller before joining a shared pass.
	creds, err := i.creds.Get(ctx, storeID, ownerID)
	if err != nil {
		return Result{}, err
	}

	ch := i.group.DoChan(storeID.String(), func() (any, error) {
		passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.opts.PassTimeout)
		defer cancel()
		return i.pass(passCtx, creds, trigger)
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

func (i *Importer) pass(ctx context.Context, creds *stores.Credentials, trigger enums.SyncTrigger) (result Result, err error) {
	started := i.now()
	ctx = i.logg.WithFields(ctx, map[string]any{
		"store_id": creds.StoreID.String(),
		"trigger":  trigger.String(),
	})

	release, err := i.lock.acquire(ctx, creds.StoreID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync lock unavailable")
	}
	if release == nil {
		i.metrics.ObservePass(trigger.String(), enums.SyncOutcomeLocked.String(), time.Since(started))
		return Result{}, pkgerrors.New(pkgerrors.CodeLocked, "sync already running")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			i.logg.WarnErr(ctx, "failed to release sync lock", relErr)
		}
	}()
	defer func() {
		outcome := enums.SyncOutcomeSuccess
		if err != nil {
			outcome = enums.SyncOutcomeFailure
		}
		i.metrics.ObservePass(trigger.String(), outcome.String(), time.Since(started))
	}()

	since := started.UTC().Add(-i.opts.Lookback)
	if creds.LastSyncedAt != nil {
		since = creds.LastSyncedAt.UTC()
	}
	syncedAt := i.now().UTC()

	client, err := i.factory(creds.Domain, creds.AccessToken)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build storefront client")
	}
	fetched, err := client.FetchOrdersWithCost(ctx, &since)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetch storefront orders")
	}

	processed, skipped := 0, 0
	for _, src := range fetched {
		inserted, err := i.persist(ctx, creds, src, syncedAt)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		if inserted {
			processed++
		} else {
			skipped++
		}
	}
	i.metrics.AddOrders(trigger.String(), processed, skipped)

	if _, err := i.rollups.Recompute(ctx, creds.StoreID, since); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute daily metrics")
	}

	if i.adSpend != nil && creds.HasAds() {
		if _, adErr := i.adSpend.Import(ctx, creds.StoreID, since, syncedAt); adErr != nil {
			i.logg.WarnErr(ctx, "ad spend import failed; continuing", adErr)
		}
	}

	if err := i.creds.SetWatermark(ctx, creds.StoreID, syncedAt); err != nil {
		return Result{}, err
	}

	result = Result{
		ProcessedCount: processed,
		TotalOrders:    len(fetched),
		Since:          since,
		SyncedAt:       syncedAt,
	}
	i.publish(ctx, creds, trigger, result)

	ctx = i.logg.WithFields(ctx, map[string]any{
		"processed":   processed,
		"skipped":     skipped,
		"total":       len(fetched),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	i.logg.Info(ctx, "sync pass completed")
	return result, nil
}

// persist inserts one order and reports false when it already existed.
func (i *Importer) persist(ctx context.Context, creds *stores.Credentials, src storefront.CostedOrder, importedAt time.Time) (bool, error) {
	exists, err := i.orders.ExistsByUpstreamID(ctx, src.ID)
	if err != nil {
		return false, fmt.Errorf("lookup order %s: %w", src.ID, err)
	}
	if exists {
		return false, nil
	}
	row := orders.FromCosted(creds.StoreID, creds.Currency, src, importedAt)
	if err := i.orders.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, orderConstraint) {
			return false, nil
		}
		return false, fmt.Errorf("insert order %s: %w", src.ID, err)
	}
	return true, nil
}

func (i *Importer) publish(ctx context.Context, creds *stores.Credentials, trigger enums.SyncTrigger, result Result) {
	if i.publisher == nil {
		return
	}
	event := Completed{
		StoreID:        creds.StoreID,
		OwnerID:        creds.OwnerID,
		Trigger:        trigger,
		Since:          result.Since,
		SyncedAt:       result.SyncedAt,
		ProcessedCount: result.ProcessedCount,
		TotalOrders:    result.TotalOrders,
	}
	if err := i.publisher.PublishSyncCompleted(ctx, event); err != nil {
		i.logg.WarnErr(ctx, "failed to publish sync completed event", err)
	}
}
