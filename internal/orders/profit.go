package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marginly/marginly-backend/internal/storefront"
	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/enums"
)

const (
	moneyPlaces  = 2
	marginPlaces = 4
)

var hundred = decimal.NewFromInt(100)

// Profit returns price minus cost minus shipping.
func Profit(price, cost, shipping decimal.Decimal) decimal.Decimal {
	return price.Sub(cost).Sub(shipping)
}

// Margin returns profit as a percentage of price, or zero when price is not
// positive.
func Margin(profit, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(price).Mul(hundred).Round(marginPlaces)
}

// FromCosted builds the row persisted for one upstream order. Store currency
// is used when the order carries none.
func FromCosted(storeID uuid.UUID, storeCurrency enums.Currency, src storefront.CostedOrder, importedAt time.Time) *models.Order {
	price := src.TotalPrice.Round(moneyPlaces)
	cost := src.TotalCost.Round(moneyPlaces)
	shipping := src.ShippingPrice.Round(moneyPlaces)
	profit := Profit(price, cost, shipping)

	currency := storeCurrency
	if parsed, err := enums.ParseCurrency(src.Currency); err == nil {
		currency = parsed
	}

	return &models.Order{
		ID:                uuid.New(),
		StoreID:           storeID,
		UpstreamOrderID:   src.ID,
		OrderNumber:       src.OrderNumber,
		TotalPrice:        price,
		TotalCost:         cost,
		ShippingCost:      shipping,
		TaxAmount:         src.TotalTax.Round(moneyPlaces),
		DiscountAmount:    src.TotalDiscounts.Round(moneyPlaces),
		Profit:            profit,
		Margin:            Margin(profit, price),
		Currency:          currency,
		FinancialStatus:   enums.NormalizeFinancialStatus(src.FinancialStatus),
		FulfillmentStatus: src.FulfillmentStatus,
		CreatedAt:         src.CreatedAt.UTC(),
		ProcessedAt:       src.ProcessedAt,
		ImportedAt:        importedAt.UTC(),
	}
}
