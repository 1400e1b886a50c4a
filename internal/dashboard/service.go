// Package dashboard serves the read-only profit view of one store.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marginly/marginly-backend/internal/orders"
	"github.com/marginly/marginly-backend/internal/rollups"
	"github.com/marginly/marginly-backend/pkg/db/models"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
)

const (
	DefaultDays  = 30
	MaxDays      = 365
	recentOrders = 10
	dateLayout   = "2006-01-02"
)

type storeFinder interface {
	FindOwnedActive(ctx context.Context, id, ownerID uuid.UUID) (*models.Store, error)
}

type rollupReader interface {
	Range(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.DailyMetric, error)
}

type recentReader interface {
	Recent(ctx context.Context, storeID uuid.UUID, from, to time.Time, limit int) ([]models.Order, error)
}

type Totals struct {
	Revenue      decimal.Decimal `json:"revenue"`
	Cost         decimal.Decimal `json:"cost"`
	AdSpend      decimal.Decimal `json:"adSpend"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Profit       decimal.Decimal `json:"profit"`
	NetProfit    decimal.Decimal `json:"netProfit"`
	Margin       decimal.Decimal `json:"margin"`
	OrderCount   int             `json:"orderCount"`
}

type Day struct {
	Date         string          `json:"date"`
	Revenue      decimal.Decimal `json:"revenue"`
	Cost         decimal.Decimal `json:"cost"`
	AdSpend      decimal.Decimal `json:"adSpend"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Profit       decimal.Decimal `json:"profit"`
	Margin       decimal.Decimal `json:"margin"`
	OrderCount   int             `json:"orderCount"`
}

type RecentOrder struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Profit      decimal.Decimal `json:"profit"`
	Margin      decimal.Decimal `json:"margin"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type StoreInfo struct {
	Name       string     `json:"name"`
	LastSynced *time.Time `json:"lastSynced"`
}

// Metrics is the full dashboard payload for one window.
type Metrics struct {
	Totals       Totals        `json:"totals"`
	DailyMetrics []Day         `json:"dailyMetrics"`
	RecentOrders []RecentOrder `json:"recentOrders"`
	Store        StoreInfo     `json:"store"`
}

type Service struct {
	stores  storeFinder
	rollups rollupReader
	orders  recentReader
	now     func() time.Time
}

func NewService(stores storeFinder, rollups rollupReader, orders recentReader) *Service {
	return &Service{stores: stores, rollups: rollups, orders: orders, now: time.Now}
}

// ClampDays applies the default window and the upper bound.
func ClampDays(days int) int {
	if days <= 0 {
		return DefaultDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// Read returns totals, the daily series and recent orders for the last days
// UTC days, today included.
func (s *Service) Read(ctx context.Context, storeID, ownerID uuid.UUID, days int) (*Metrics, error) {
	store, err := s.stores.FindOwnedActive(ctx, storeID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	days = ClampDays(days)
	now := s.now().UTC()
	from := rollups.DayStart(now.AddDate(0, 0, -(days - 1)))
	to := rollups.DayEnd(now)

	rows, err := s.rollups.Range(ctx, storeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily metrics")
	}
	recent, err := s.orders.Recent(ctx, storeID, from, to, recentOrders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent orders")
	}

	out := &Metrics{
		DailyMetrics: make([]Day, 0, len(rows)),
		RecentOrders: make([]RecentOrder, 0, len(recent)),
		Store:        StoreInfo{Name: store.Name, LastSynced: store.LastSyncedAt},
	}
	totals := Totals{
		Revenue:      decimal.Zero,
		Cost:         decimal.Zero,
		AdSpend:      decimal.Zero,
		ShippingCost: decimal.Zero,
		Profit:       decimal.Zero,
	}
	for _, r := range rows {
		totals.Revenue = totals.Revenue.Add(r.Revenue)
		totals.Cost = totals.Cost.Add(r.Cost)
		totals.AdSpend = totals.AdSpend.Add(r.AdSpend)
		totals.ShippingCost = totals.ShippingCost.Add(r.ShippingCost)
		totals.Profit = totals.Profit.Add(r.Profit)
		totals.OrderCount += r.OrderCount
		out.DailyMetrics = append(out.DailyMetrics, Day{
			Date:         r.Date.UTC().Format(dateLayout),
			Revenue:      r.Revenue,
			Cost:         r.Cost,
			AdSpend:      r.AdSpend,
			ShippingCost: r.ShippingCost,
			Profit:       r.Profit,
			Margin:       r.Margin,
			OrderCount:   r.OrderCount,
		})
	}
	totals.NetProfit = totals.Profit.Sub(totals.AdSpend)
	totals.Margin = orders.Margin(totals.Profit, totals.Revenue)
	out.Totals = totals

	for _, o := range recent {
		out.RecentOrders = append(out.RecentOrders, RecentOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			TotalPrice:  o.TotalPrice,
			Profit:      o.Profit,
			Margin:      o.Margin,
			CreatedAt:   o.CreatedAt,
		})
	}
	return out, nil
}
