package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/enums"
)

// StoreDTO exposes safe store data in API responses. Credentials never leave
// the service.
type StoreDTO struct {
	ID           uuid.UUID      `json:"id"`
	OwnerID      uuid.UUID      `json:"ownerId"`
	Name         string         `json:"name"`
	ShopDomain   string         `json:"shopDomain"`
	ShopID       *string        `json:"shopId,omitempty"`
	Currency     enums.Currency `json:"currency"`
	Timezone     string         `json:"timezone"`
	IsActive     bool           `json:"isActive"`
	AdsConnected bool           `json:"adsConnected"`
	LastSyncedAt *time.Time     `json:"lastSyncedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// StoreSummary is the list view of an active store.
type StoreSummary struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	ShopDomain   string     `json:"shopDomain"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// StoreRef identifies a store together with its owning tenant.
type StoreRef struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// CreateStoreInput holds connection data captured by the OAuth callback.
type CreateStoreInput struct {
	Domain      string
	AccessToken string
	ShopID      *string
	Name        string
	Currency    string
	Timezone    string
}

// UpdateCredentialsInput replaces whichever credentials are non-nil.
type UpdateCredentialsInput struct {
	AccessToken     *string
	AdsCustomerID   *string
	AdsRefreshToken *string
}

func (in UpdateCredentialsInput) empty() bool {
	return in.AccessToken == nil && in.AdsCustomerID == nil && in.AdsRefreshToken == nil
}

// Credentials is a store with its tokens decrypted. It must not be
// serialized or logged.
type Credentials struct {
	StoreID         uuid.UUID
	OwnerID         uuid.UUID
	Name            string
	Domain          string
	AccessToken     string
	Currency        enums.Currency
	Timezone        string
	LastSyncedAt    *time.Time
	AdsCustomerID   string
	AdsRefreshToken string
}

// HasAds reports whether ad spend can be imported with these credentials.
func (c Credentials) HasAds() bool {
	return c.AdsCustomerID != "" && c.AdsRefreshToken != ""
}

// RotationReport summarizes a credential re-encryption run.
type RotationReport struct {
	FromKeyID string `json:"fromKeyId,omitempty"`
	ToKeyID   string `json:"toKeyId"`
	Scanned   int    `json:"scanned"`
	Rotated   int    `json:"rotated"`
	Encrypted int    `json:"encrypted"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		Name:         m.Name,
		ShopDomain:   m.ShopDomain,
		ShopID:       m.ShopID,
		Currency:     m.Currency,
		Timezone:     m.Timezone,
		IsActive:     m.IsActive,
		AdsConnected: m.HasAdsCredentials(),
		LastSyncedAt: m.LastSyncedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func summaryFromModel(m models.Store) StoreSummary {
	return StoreSummary{
		ID:           m.ID,
		Name:         m.Name,
		ShopDomain:   m.ShopDomain,
		LastSyncedAt: m.LastSyncedAt,
		CreatedAt:    m.CreatedAt,
	}
}
