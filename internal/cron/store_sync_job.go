package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/marginly/marginly-backend/internal/ordersync"
	"github.com/marginly/marginly-backend/internal/stores"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
)

const defaultSyncConcurrency = 4

type activeStoreLister interface {
	ListAllActive(ctx context.Context) ([]stores.StoreRef, error)
}

type scheduledSyncer interface {
	SyncScheduled(ctx context.Context, storeID, ownerID uuid.UUID) (ordersync.Result, error)
}

// StoreSyncJobParams configure the scheduled store sync.
type StoreSyncJobParams struct {
	Logger      *logger.Logger
	Stores      activeStoreLister
	Syncer      scheduledSyncer
	Concurrency int
}

// NewStoreSyncJob builds the job that runs a sync pass for every active store.
func NewStoreSyncJob(params StoreSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store lister required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("syncer required")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultSyncConcurrency
	}
	return &storeSyncJob{
		logg:        params.Logger,
		stores:      params.Stores,
		syncer:      params.Syncer,
		concurrency: concurrency,
	}, nil
}

type storeSyncJob struct {
	logg        *logger.Logger
	stores      activeStoreLister
	syncer      scheduledSyncer
	concurrency int
}

func (j *storeSyncJob) Name() string { return "store-sync" }

// Run syncs every active store. One store failing never stops the others; the
// failures are combined into the returned error.
func (j *storeSyncJob) Run(ctx context.Context) error {
	refs, err := j.stores.ListAllActive(ctx)
	if err != nil {
		return fmt.Errorf("list active stores: %w", err)
	}

	var (
		mu       sync.Mutex
		errs     error
		synced   int
		inFlight int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			storeCtx := j.logg.WithStoreID(gctx, ref.ID.String())
			res, err := j.syncer.SyncScheduled(storeCtx, ref.ID, ref.OwnerID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				synced++
				storeCtx = j.logg.WithField(storeCtx, "processed", res.ProcessedCount)
				j.logg.Debug(storeCtx, "store synced")
			case pkgerrors.IsCode(err, pkgerrors.CodeLocked):
				// A manual pass already holds the store.
				inFlight++
			default:
				j.logg.WarnErr(storeCtx, "store sync failed", err)
				errs = multierr.Append(errs, fmt.Errorf("store %s: %w", ref.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	ctx = j.logg.WithFields(ctx, map[string]any{
		"stores":    len(refs),
		"synced":    synced,
		"in_flight": inFlight,
		"failed":    len(multierr.Errors(errs)),
	})
	j.logg.Info(ctx, "store sync finished")
	return errs
}
