package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/marginly/marginly-backend/internal/storefront"
	"github.com/marginly/marginly-backend/pkg/enums"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProfitAndMargin(t *testing.T) {
	cases := []struct {
		name                  string
		price, cost, shipping string
		profit, margin        string
	}{
		{"typical", "100", "40", "10", "50", "50"},
		{"loss", "20", "25", "5", "-10", "-50"},
		{"free order", "0", "5", "0", "-5", "0"},
		{"repeating", "30", "10", "0", "20", "66.6667"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profit := Profit(dec(tc.price), dec(tc.cost), dec(tc.shipping))
			assert.True(t, dec(tc.profit).Equal(profit), profit.String())
			margin := Margin(profit, dec(tc.price))
			assert.True(t, dec(tc.margin).Equal(margin), margin.String())
		})
	}
}

func TestFromCosted(t *testing.T) {
	storeID := uuid.New()
	created := time.Date(2026, 3, 2, 15, 0, 0, 0, time.FixedZone("EST", -5*3600))
	src := storefront.CostedOrder{
		Order: storefront.Order{
			ID:              "1001",
			OrderNumber:     "1",
			CreatedAt:       created,
			FinancialStatus: "something_new",
			TotalPrice:      dec("100.004"),
			ShippingPrice:   dec("10"),
		},
		TotalCost: dec("25"),
	}

	row := FromCosted(storeID, enums.CurrencyEUR, src, time.Now())
	assert.Equal(t, storeID, row.StoreID)
	assert.Equal(t, "1001", row.UpstreamOrderID)
	assert.Equal(t, enums.CurrencyEUR, row.Currency)
	assert.Equal(t, enums.FinancialStatusUnknown, row.FinancialStatus)
	assert.True(t, dec("100").Equal(row.TotalPrice))
	assert.True(t, dec("65").Equal(row.Profit))
	assert.True(t, dec("65").Equal(row.Margin))
	assert.Equal(t, time.UTC, row.CreatedAt.Location())
	assert.True(t, row.CreatedAt.Equal(created))
}
