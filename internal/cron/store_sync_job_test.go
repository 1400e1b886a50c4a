package cron

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/marginly/marginly-backend/internal/ordersync"
	"github.com/marginly/marginly-backend/internal/stores"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
)

type fakeLister struct {
	refs []stores.StoreRef
	err  error
}

func (f *fakeLister) ListAllActive(context.Context) ([]stores.StoreRef, error) {
	return f.refs, f.err
}

type fakeSyncer struct {
	mu     sync.Mutex
	calls  map[uuid.UUID]uuid.UUID
	errFor map[uuid.UUID]error
}

func (f *fakeSyncer) SyncScheduled(_ context.Context, storeID, ownerID uuid.UUID) (ordersync.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[uuid.UUID]uuid.UUID{}
	}
	f.calls[storeID] = ownerID
	if err := f.errFor[storeID]; err != nil {
		return ordersync.Result{}, err
	}
	return ordersync.Result{ProcessedCount: 1}, nil
}

func refs(n int) []stores.StoreRef {
	out := make([]stores.StoreRef, n)
	for i := range out {
		out[i] = stores.StoreRef{ID: uuid.New(), OwnerID: uuid.New()}
	}
	return out
}

func TestStoreSyncJobSyncsEveryStore(t *testing.T) {
	all := refs(5)
	syncer := &fakeSyncer{}
	job, err := NewStoreSyncJob(StoreSyncJobParams{
		Logger:      logger.Nop(),
		Stores:      &fakeLister{refs: all},
		Syncer:      syncer,
		Concurrency: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "store-sync", job.Name())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, syncer.calls, 5)
	for _, ref := range all {
		assert.Equal(t, ref.OwnerID, syncer.calls[ref.ID])
	}
}

func TestStoreSyncJobCombinesFailuresAndIgnoresRunningPasses(t *testing.T) {
	all := refs(4)
	syncer := &fakeSyncer{errFor: map[uuid.UUID]error{
		all[0].ID: pkgerrors.New(pkgerrors.CodeUpstream, "shop down"),
		all[1].ID: pkgerrors.New(pkgerrors.CodeLocked, "sync already running"),
		all[2].ID: errors.New("db down"),
	}}
	job, err := NewStoreSyncJob(StoreSyncJobParams{
		Logger: logger.Nop(),
		Stores: &fakeLister{refs: all},
		Syncer: syncer,
	})
	require.NoError(t, err)

	runErr := job.Run(context.Background())
	require.Error(t, runErr)
	assert.Len(t, multierr.Errors(runErr), 2)
	assert.Len(t, syncer.calls, 4)
}

func TestStoreSyncJobListFailure(t *testing.T) {
	job, err := NewStoreSyncJob(StoreSyncJobParams{
		Logger: logger.Nop(),
		Stores: &fakeLister{err: errors.New("db down")},
		Syncer: &fakeSyncer{},
	})
	require.NoError(t, err)
	assert.Error(t, job.Run(context.Background()))
}

func TestNewStoreSyncJobValidation(t *testing.T) {
	_, err := NewStoreSyncJob(StoreSyncJobParams{Stores: &fakeLister{}, Syncer: &fakeSyncer{}})
	assert.Error(t, err)
	_, err = NewStoreSyncJob(StoreSyncJobParams{Logger: logger.Nop(), Syncer: &fakeSyncer{}})
	assert.Error(t, err)
	_, err = NewStoreSyncJob(StoreSyncJobParams{Logger: logger.Nop(), Stores: &fakeLister{}})
	assert.Error(t, err)
}
