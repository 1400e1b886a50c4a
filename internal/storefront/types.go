package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a storefront order normalized for import. Money values are in the
// store currency.
type Order struct {
	ID                string
	OrderNumber       string
	Currency          string
	CreatedAt         time.Time
	ProcessedAt       *time.Time
	FinancialStatus   string
	FulfillmentStatus *string
	TotalPrice        decimal.Decimal
	SubtotalPrice     decimal.Decimal
	TotalTax          decimal.Decimal
	TotalDiscounts    decimal.Decimal
	ShippingPrice     decimal.Decimal
	LineItems         []LineItem
}

type LineItem struct {
	ID        string
	ProductID string
	VariantID string
	Quantity  int
	Price     decimal.Decimal
}

// CostedOrder pairs an order with the summed unit cost of its line items.
// UnresolvedLines counts line items that contributed zero because their cost
// could not be found.
type CostedOrder struct {
	Order
	TotalCost       decimal.Decimal
	UnresolvedLines int
}

// wire shapes of the Admin REST API. Identifiers arrive as JSON numbers.

type ordersPage struct {
	Orders []wireOrder `json:"orders"`
}

type wireOrder struct {
	ID                    jsonID         `json:"id"`
	Name                  string         `json:"name"`
	OrderNumber           jsonID         `json:"order_number"`
	Currency              string         `json:"currency"`
	CreatedAt             time.Time      `json:"created_at"`
	ProcessedAt           *time.Time     `json:"processed_at"`
	FinancialStatus       string         `json:"financial_status"`
	FulfillmentStatus     *string        `json:"fulfillment_status"`
	TotalPrice            string         `json:"total_price"`
	SubtotalPrice         string         `json:"subtotal_price"`
	TotalTax              string         `json:"total_tax"`
	TotalDiscounts        string         `json:"total_discounts"`
	TotalShippingPriceSet *wirePriceSet  `json:"total_shipping_price_set"`
	LineItems             []wireLineItem `json:"line_items"`
}

type wirePriceSet struct {
	ShopMoney struct {
		Amount string `json:"amount"`
	} `json:"shop_money"`
}

type wireLineItem struct {
	ID        jsonID `json:"id"`
	ProductID jsonID `json:"product_id"`
	VariantID jsonID `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type productsPage struct {
	Products []struct {
		ID       jsonID `json:"id"`
		Variants []struct {
			ID              jsonID `json:"id"`
			InventoryItemID jsonID `json:"inventory_item_id"`
		} `json:"variants"`
	} `json:"products"`
}

type inventoryItemsPage struct {
	InventoryItems []struct {
		ID   jsonID  `json:"id"`
		Cost *string `json:"cost"`
	} `json:"inventory_items"`
}

func (w wireOrder) normalize() Order {
	out := Order{
		ID:                w.ID.String(),
		OrderNumber:       w.OrderNumber.String(),
		Currency:          w.Currency,
		CreatedAt:         w.CreatedAt.UTC(),
		FinancialStatus:   w.FinancialStatus,
		FulfillmentStatus: w.FulfillmentStatus,
		TotalPrice:        parseMoney(w.TotalPrice),
		SubtotalPrice:     parseMoney(w.SubtotalPrice),
		TotalTax:          parseMoney(w.TotalTax),
		TotalDiscounts:    parseMoney(w.TotalDiscounts),
		LineItems:         make([]LineItem, 0, len(w.LineItems)),
	}
	if out.OrderNumber == "" {
		out.OrderNumber = w.Name
	}
	if w.ProcessedAt != nil {
		processed := w.ProcessedAt.UTC()
		out.ProcessedAt = &processed
	}
	if w.TotalShippingPriceSet != nil {
		out.ShippingPrice = parseMoney(w.TotalShippingPriceSet.ShopMoney.Amount)
	}
	for _, li := range w.LineItems {
		out.LineItems = append(out.LineItems, LineItem{
			ID:        li.ID.String(),
			ProductID: li.ProductID.String(),
			VariantID: li.VariantID.String(),
			Quantity:  li.Quantity,
			Price:     parseMoney(li.Price),
		})
	}
	return out
}

// parseMoney treats empty or malformed amounts as zero.
func parseMoney(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
