package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLockStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemLockStore() *memLockStore {
	return &memLockStore{keys: map[string]string{}}
}

func (m *memLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *memLockStore) ReleaseIfOwner(_ context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] != owner {
		return false, nil
	}
	delete(m.keys, key)
	return true, nil
}

func (m *memLockStore) LockKey(scope, id string) string {
	return "mg:lock:" + scope + ":" + id
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := newMemLockStore()
	first, err := NewRedisLock(store, "sync-worker", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "sync-worker", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, store.keys, "mg:lock:cron:sync-worker")

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	// A loser releasing must not free the winner's lock.
	require.NoError(t, second.Release(context.Background()))
	assert.Contains(t, store.keys, "mg:lock:cron:sync-worker")

	require.NoError(t, first.Release(context.Background()))
	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "x", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemLockStore(), "", time.Minute)
	assert.Error(t, err)

	lock, err := NewRedisLock(newMemLockStore(), "x", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}
