package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/pkg/enums"
)

// Store is one connected storefront integration owned by a single tenant.
// AccessToken and AdsRefreshToken hold serialized encryption envelopes.
type Store struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID         uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index"`
	ShopDomain      string         `gorm:"column:shop_domain;not null;uniqueIndex:stores_shop_domain_key"`
	AccessToken     string         `gorm:"column:access_token;not null"`
	ShopID          *string        `gorm:"column:shop_id"`
	AdsCustomerID   *string        `gorm:"column:ads_customer_id"`
	AdsRefreshToken *string        `gorm:"column:ads_refresh_token"`
	Name            string         `gorm:"column:name;not null"`
	Currency        enums.Currency `gorm:"column:currency;type:text;not null;default:'USD'"`
	Timezone        string         `gorm:"column:timezone;not null;default:'UTC'"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true"`
	LastSyncedAt    *time.Time     `gorm:"column:last_synced_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string { return "stores" }

// HasAdsCredentials reports whether ad spend can be imported for the store.
func (s Store) HasAdsCredentials() bool {
	return s.AdsCustomerID != nil && *s.AdsCustomerID != "" &&
		s.AdsRefreshToken != nil && *s.AdsRefreshToken != ""
}
