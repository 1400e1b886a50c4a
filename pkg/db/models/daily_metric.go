package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyMetric is the per-store rollup for one UTC calendar day. Date always
// holds midnight UTC.
type DailyMetric struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	StoreID      uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:daily_metrics_store_date_key,priority:1"`
	Date         time.Time       `gorm:"column:date;type:date;not null;uniqueIndex:daily_metrics_store_date_key,priority:2"`
	Revenue      decimal.Decimal `gorm:"column:revenue;type:numeric(14,2);not null;default:0"`
	Cost         decimal.Decimal `gorm:"column:cost;type:numeric(14,2);not null;default:0"`
	AdSpend      decimal.Decimal `gorm:"column:ad_spend;type:numeric(14,2);not null;default:0"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(14,2);not null;default:0"`
	Profit       decimal.Decimal `gorm:"column:profit;type:numeric(14,2);not null;default:0"`
	Margin       decimal.Decimal `gorm:"column:margin;type:numeric(9,4);not null;default:0"`
	OrderCount   int             `gorm:"column:order_count;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (DailyMetric) TableName() string { return "daily_metrics" }
