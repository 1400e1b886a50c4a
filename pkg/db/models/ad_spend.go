package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marginly/marginly-backend/pkg/enums"
)

// AdSpend is one campaign's spend on one UTC day.
type AdSpend struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	StoreID      uuid.UUID        `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ad_spend_store_campaign_date_key,priority:1"`
	Platform     enums.AdPlatform `gorm:"column:platform;type:text;not null;uniqueIndex:ad_spend_store_campaign_date_key,priority:2"`
	CampaignID   string           `gorm:"column:campaign_id;not null;uniqueIndex:ad_spend_store_campaign_date_key,priority:3"`
	CampaignName string           `gorm:"column:campaign_name"`
	Date         time.Time        `gorm:"column:date;type:date;not null;uniqueIndex:ad_spend_store_campaign_date_key,priority:4"`
	Amount       decimal.Decimal  `gorm:"column:amount;type:numeric(14,2);not null"`
	Clicks       int64            `gorm:"column:clicks;not null;default:0"`
	Impressions  int64            `gorm:"column:impressions;not null;default:0"`
	Conversions  decimal.Decimal  `gorm:"column:conversions;type:numeric(14,2);not null;default:0"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (AdSpend) TableName() string { return "ad_spend" }
