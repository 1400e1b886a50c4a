package ordersync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/pkg/redis"
)

const lockScope = "sync:store"

// storeLock is a per-store advisory lock shared by every process.
type storeLock struct {
	store redis.LockStore
	ttl   time.Duration
}

// acquire returns a release func when the lock was taken, or nil when another
// holder owns it.
func (l storeLock) acquire(ctx context.Context, storeID uuid.UUID) (func(context.Context) error, error) {
	if l.store == nil {
		return func(context.Context) error { return nil }, nil
	}
	key := l.store.LockKey(lockScope, storeID.String())
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) error {
		_, err := l.store.ReleaseIfOwner(ctx, key, owner)
		return err
	}, nil
}
