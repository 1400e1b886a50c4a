package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	r := NewRegistry(namedJob("store-sync"), nil, namedJob("ad-spend"))
	assert.Equal(t, []string{"store-sync", "ad-spend"}, r.Names())

	jobs := r.Jobs()
	require.Len(t, jobs, 2)
	jobs[0] = nil
	assert.NotNil(t, r.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry(namedJob("store-sync"), namedJob("store-sync"))
	assert.Len(t, r.Jobs(), 1)

	err := r.Register(namedJob("store-sync"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	require.Error(t, r.Register(nil))
	require.NoError(t, r.Register(namedJob("cleanup")))
	assert.Equal(t, []string{"store-sync", "cleanup"}, r.Names())
}
