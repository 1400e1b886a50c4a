package stores

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marginly/marginly-backend/pkg/db"
	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/enums"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/security"
)

const (
	defaultTimezone   = "UTC"
	domainConstraint  = "stores_shop_domain_key"
	legacyTokenNotice = "credential stored without encryption; run rotate-keys"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindOwnedActive(ctx context.Context, id, ownerID uuid.UUID) (*models.Store, error)
	ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error)
	ListActive(ctx context.Context) ([]models.Store, error)
	UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, columns map[string]any) (bool, error)
	AdvanceWatermark(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type tokenCipher interface {
	EncryptString(value string) (string, error)
	DecryptString(raw string) (string, error)
}

// Service is the credential store: it owns encryption at rest and hands out
// decrypted credentials scoped by tenant.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	Get(ctx context.Context, storeID, ownerID uuid.UUID) (*Credentials, error)
	GetByID(ctx context.Context, storeID uuid.UUID) (*Credentials, error)
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]StoreSummary, error)
	ListAllActive(ctx context.Context) ([]StoreRef, error)
	UpdateCredentials(ctx context.Context, storeID, ownerID uuid.UUID, input UpdateCredentialsInput) (*StoreDTO, error)
	SetWatermark(ctx context.Context, storeID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, storeID, ownerID uuid.UUID) error
}

type service struct {
	repo   storeRepository
	cipher tokenCipher
	logg   *logger.Logger
}

// NewService builds the credential store.
func NewService(repo storeRepository, cipher tokenCipher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("token cipher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cipher: cipher, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner required")
	}

	domain, err := NormalizeDomain(input.Domain)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop domain")
	}
	if strings.TrimSpace(input.AccessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	currency := enums.DefaultCurrency
	if strings.TrimSpace(input.Currency) != "" {
		currency, err = enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
	}

	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = defaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timezone")
	}

	sealed, err := s.cipher.EncryptString(input.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt access token")
	}

	store := &models.Store{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ShopDomain:  domain,
		AccessToken: sealed,
		ShopID:      input.ShopID,
		Name:        name,
		Currency:    currency,
		Timezone:    timezone,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, store); err != nil {
		if db.IsUniqueViolation(err, domainConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store domain already connected")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}

	ctx = s.logg.WithStoreID(ctx, store.ID.String())
	s.logg.Info(ctx, "store connected")
	return FromModel(store), nil
}

func (s *service) Get(ctx context.Context, storeID, ownerID uuid.UUID) (*Credentials, error) {
	store, err := s.repo.FindOwnedActive(ctx, storeID, ownerID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return s.decrypt(ctx, store)
}

func (s *service) GetByID(ctx context.Context, storeID uuid.UUID) (*Credentials, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return s.decrypt(ctx, store)
}

func (s *service) ListActive(ctx context.Context, ownerID uuid.UUID) ([]StoreSummary, error) {
	rows, err := s.repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	out := make([]StoreSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, summaryFromModel(row))
	}
	return out, nil
}

func (s *service) ListAllActive(ctx context.Context) ([]StoreRef, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active stores")
	}
	out := make([]StoreRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, StoreRef{ID: row.ID, OwnerID: row.OwnerID})
	}
	return out, nil
}

func (s *service) UpdateCredentials(ctx context.Context, storeID, ownerID uuid.UUID, input UpdateCredentialsInput) (*StoreDTO, error) {
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no credentials provided")
	}

	columns := map[string]any{}
	if input.AccessToken != nil {
		if strings.TrimSpace(*input.AccessToken) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token cannot be empty")
		}
		sealed, err := s.cipher.EncryptString(*input.AccessToken)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt access token")
		}
		columns["access_token"] = sealed
	}
	if input.AdsCustomerID != nil {
		columns["ads_customer_id"] = nullable(normalizeCustomerID(*input.AdsCustomerID))
	}
	if input.AdsRefreshToken != nil {
		if *input.AdsRefreshToken == "" {
			columns["ads_refresh_token"] = nil
		} else {
			sealed, err := s.cipher.EncryptString(*input.AdsRefreshToken)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt ads refresh token")
			}
			columns["ads_refresh_token"] = sealed
		}
	}

	matched, err := s.repo.UpdateOwned(ctx, storeID, ownerID, columns)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store credentials")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}

	store, err := s.repo.FindOwnedActive(ctx, storeID, ownerID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	ctx = s.logg.WithStoreID(ctx, storeID.String())
	s.logg.Info(ctx, "store credentials updated")
	return FromModel(store), nil
}

func (s *service) SetWatermark(ctx context.Context, storeID uuid.UUID, at time.Time) error {
	moved, err := s.repo.AdvanceWatermark(ctx, storeID, at)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance watermark")
	}
	if !moved {
		ctx = s.logg.WithFields(ctx, map[string]any{"store_id": storeID.String(), "watermark": at.UTC()})
		s.logg.Debug(ctx, "watermark not advanced; stored value is newer")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, storeID, ownerID uuid.UUID) error {
	deleted, err := s.repo.DeleteOwned(ctx, storeID, ownerID)
	if err != nil {
		return mapLookupErr(err)
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	ctx = s.logg.WithStoreID(ctx, storeID.String())
	s.logg.Info(ctx, "store deleted")
	return nil
}

func (s *service) decrypt(ctx context.Context, store *models.Store) (*Credentials, error) {
	ctx = s.logg.WithStoreID(ctx, store.ID.String())

	token, err := s.open(ctx, store.AccessToken)
	if err != nil {
		s.logg.Error(ctx, "failed to decrypt access token", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrypt store credentials")
	}

	creds := &Credentials{
		StoreID:      store.ID,
		OwnerID:      store.OwnerID,
		Name:         store.Name,
		Domain:       store.ShopDomain,
		AccessToken:  token,
		Currency:     store.Currency,
		Timezone:     store.Timezone,
		LastSyncedAt: store.LastSyncedAt,
	}
	if store.AdsCustomerID != nil {
		creds.AdsCustomerID = *store.AdsCustomerID
	}
	if store.AdsRefreshToken != nil && *store.AdsRefreshToken != "" {
		refresh, err := s.open(ctx, *store.AdsRefreshToken)
		if err != nil {
			// Ads are optional; the store stays usable for order sync.
			s.logg.WarnErr(ctx, "failed to decrypt ads refresh token", err)
		} else {
			creds.AdsRefreshToken = refresh
		}
	}
	return creds, nil
}

func (s *service) open(ctx context.Context, raw string) (string, error) {
	if !security.IsEnvelope(raw) {
		s.logg.Warn(ctx, legacyTokenNotice)
		return raw, nil
	}
	return s.cipher.DecryptString(raw)
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
}

// NormalizeDomain lowercases a shop domain and strips any scheme or path.
func NormalizeDomain(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("domain is empty")
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	u, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	if host == "" || strings.ContainsAny(host, " _") || !strings.Contains(host, ".") {
		return "", fmt.Errorf("domain %q is not a hostname", raw)
	}
	return host, nil
}

func normalizeCustomerID(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
