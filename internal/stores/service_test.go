package stores

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginly/marginly-backend/pkg/db/dbtest"
	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/enums"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/security"
)

const (
	testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	oldKeyHex  = "1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100"
)

func newTestService(t *testing.T) (Service, *Repository, *security.Cipher) {
	t.Helper()
	repo := NewRepository(dbtest.New(t))
	c, err := security.NewCipherFromHex(testKeyHex)
	require.NoError(t, err)
	svc, err := NewService(repo, c, logger.Nop())
	require.NoError(t, err)
	return svc, repo, c
}

func createStore(t *testing.T, svc Service, owner uuid.UUID, domain string) *StoreDTO {
	t.Helper()
	dto, err := svc.Create(context.Background(), owner, CreateStoreInput{
		Domain:      domain,
		AccessToken: "shpat_secret",
		Name:        "Acme",
	})
	require.NoError(t, err)
	return dto
}

func TestCreateEncryptsAccessToken(t *testing.T) {
	svc, repo, c := newTestService(t)
	owner := uuid.New()

	dto := createStore(t, svc, owner, "https://Acme.myshopify.com/")
	assert.Equal(t, "acme.myshopify.com", dto.ShopDomain)
	assert.Equal(t, enums.DefaultCurrency, dto.Currency)
	assert.Equal(t, "UTC", dto.Timezone)
	assert.False(t, dto.AdsConnected)

	row, err := repo.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "shpat_secret", row.AccessToken)
	assert.True(t, security.IsEnvelope(row.AccessToken))

	plain, err := c.DecryptString(row.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "shpat_secret", plain)
}

func TestCreateRejectsDuplicateDomain(t *testing.T) {
	svc, _, _ := newTestService(t)
	createStore(t, svc, uuid.New(), "acme.myshopify.com")

	_, err := svc.Create(context.Background(), uuid.New(), CreateStoreInput{
		Domain:      "ACME.myshopify.com",
		AccessToken: "other",
		Name:        "Copy",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()

	cases := map[string]CreateStoreInput{
		"missing token":    {Domain: "a.myshopify.com", Name: "A"},
		"missing name":     {Domain: "a.myshopify.com", AccessToken: "t"},
		"bad domain":       {Domain: "not a domain", AccessToken: "t", Name: "A"},
		"bad currency":     {Domain: "a.myshopify.com", AccessToken: "t", Name: "A", Currency: "dollars"},
		"unknown timezone": {Domain: "a.myshopify.com", AccessToken: "t", Name: "A", Timezone: "Mars/Olympus"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), owner, input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
}

func TestGetIsScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	dto := createStore(t, svc, owner, "acme.myshopify.com")

	creds, err := svc.Get(context.Background(), dto.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "shpat_secret", creds.AccessToken)
	assert.Equal(t, "acme.myshopify.com", creds.Domain)
	assert.Nil(t, creds.LastSyncedAt)

	_, err = svc.Get(context.Background(), dto.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestGetReturnsLegacyPlaintextToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := uuid.New()
	store := &models.Store{
		OwnerID:     owner,
		ShopDomain:  "legacy.myshopify.com",
		AccessToken: "plain-token",
		Name:        "Legacy",
		Currency:    enums.DefaultCurrency,
		Timezone:    "UTC",
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), store))

	creds, err := svc.Get(context.Background(), store.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "plain-token", creds.AccessToken)
}

func TestGetFailsOnUndecryptableAccessToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	other, err := security.NewCipherFromHex(oldKeyHex)
	require.NoError(t, err)
	sealed, err := other.EncryptString("token")
	require.NoError(t, err)

	owner := uuid.New()
	store := &models.Store{
		OwnerID:     owner,
		ShopDomain:  "foreign.myshopify.com",
		AccessToken: sealed,
		Name:        "Foreign",
		Currency:    enums.DefaultCurrency,
		Timezone:    "UTC",
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), store))

	_, err = svc.Get(context.Background(), store.ID, owner)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestUpdateCredentialsConnectsAds(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	dto := createStore(t, svc, owner, "acme.myshopify.com")

	customer := "123-456-7890"
	refresh := "refresh-token"
	updated, err := svc.UpdateCredentials(context.Background(), dto.ID, owner, UpdateCredentialsInput{
		AdsCustomerID:   &customer,
		AdsRefreshToken: &refresh,
	})
	require.NoError(t, err)
	assert.True(t, updated.AdsConnected)

	creds, err := svc.Get(context.Background(), dto.ID, owner)
	require.NoError(t, err)
	assert.True(t, creds.HasAds())
	assert.Equal(t, "1234567890", creds.AdsCustomerID)
	assert.Equal(t, "refresh-token", creds.AdsRefreshToken)
	assert.Equal(t, "shpat_secret", creds.AccessToken)

	_, err = svc.UpdateCredentials(context.Background(), dto.ID, owner, UpdateCredentialsInput{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.UpdateCredentials(context.Background(), dto.ID, uuid.New(), UpdateCredentialsInput{AdsCustomerID: &customer})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestSetWatermarkOnlyMovesForward(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := uuid.New()
	dto := createStore(t, svc, owner, "acme.myshopify.com")
	ctx := context.Background()

	later := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	require.NoError(t, svc.SetWatermark(ctx, dto.ID, later))
	require.NoError(t, svc.SetWatermark(ctx, dto.ID, earlier))

	row, err := repo.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	require.NotNil(t, row.LastSyncedAt)
	assert.True(t, row.LastSyncedAt.Equal(later), "got %v", row.LastSyncedAt)
}

func TestListActiveAndDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	first := createStore(t, svc, owner, "one.myshopify.com")
	createStore(t, svc, owner, "two.myshopify.com")
	createStore(t, svc, uuid.New(), "three.myshopify.com")
	ctx := context.Background()

	list, err := svc.ListActive(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := svc.ListAllActive(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Delete(ctx, first.ID, uuid.New())))
	require.NoError(t, svc.Delete(ctx, first.ID, owner))

	list, err = svc.ListActive(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "two.myshopify.com", list[0].ShopDomain)

	_, err = svc.GetByID(ctx, first.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"acme.myshopify.com":              "acme.myshopify.com",
		" HTTPS://Acme.MyShopify.com/":    "acme.myshopify.com",
		"http://acme.myshopify.com/admin": "acme.myshopify.com",
	}
	for in, want := range cases {
		got, err := NormalizeDomain(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "localhost", "has space.com"} {
		_, err := NormalizeDomain(bad)
		assert.Error(t, err, bad)
	}
}
