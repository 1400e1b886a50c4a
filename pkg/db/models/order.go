package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marginly/marginly-backend/pkg/enums"
)

// Order is one imported sales transaction. Rows are immutable once written.
type Order struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	StoreID           uuid.UUID             `gorm:"column:store_id;type:uuid;not null;index:orders_store_created_idx,priority:1"`
	UpstreamOrderID   string                `gorm:"column:upstream_order_id;not null;uniqueIndex:orders_upstream_order_id_key"`
	OrderNumber       string                `gorm:"column:order_number;not null"`
	TotalPrice        decimal.Decimal       `gorm:"column:total_price;type:numeric(14,2);not null"`
	TotalCost         decimal.Decimal       `gorm:"column:total_cost;type:numeric(14,2);not null;default:0"`
	ShippingCost      decimal.Decimal       `gorm:"column:shipping_cost;type:numeric(14,2);not null;default:0"`
	TaxAmount         decimal.Decimal       `gorm:"column:tax_amount;type:numeric(14,2);not null;default:0"`
	DiscountAmount    decimal.Decimal       `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	Profit            decimal.Decimal       `gorm:"column:profit;type:numeric(14,2);not null;default:0"`
	Margin            decimal.Decimal       `gorm:"column:margin;type:numeric(9,4);not null;default:0"`
	Currency          enums.Currency        `gorm:"column:currency;type:text;not null"`
	FinancialStatus   enums.FinancialStatus `gorm:"column:financial_status;type:text;not null"`
	FulfillmentStatus *string               `gorm:"column:fulfillment_status"`
	CreatedAt         time.Time             `gorm:"column:created_at;not null;autoCreateTime:false;index:orders_store_created_idx,priority:2"`
	ProcessedAt       *time.Time            `gorm:"column:processed_at"`
	ImportedAt        time.Time             `gorm:"column:imported_at;not null"`
}

func (Order) TableName() string { return "orders" }
