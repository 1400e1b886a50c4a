// Package rollups derives per-day store totals from imported orders.
//
// Days are UTC calendar days. The store timezone is informational only and is
// not used for grouping, so a rollup's date is always midnight UTC.
package rollups

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marginly/marginly-backend/internal/orders"
	"github.com/marginly/marginly-backend/pkg/db/models"
)

type orderLister interface {
	ListCreatedSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.Order, error)
}

// DaySpend is the ad spend total for one UTC day.
type DaySpend struct {
	Date   time.Time
	Amount decimal.Decimal
}

type Aggregator struct {
	orders orderLister
	repo   Repository
	now    func() time.Time
}

func NewAggregator(orderRepo orderLister, repo Repository) *Aggregator {
	return &Aggregator{orders: orderRepo, repo: repo, now: time.Now}
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayEnd returns the last nanosecond of t's UTC day.
func DayEnd(t time.Time) time.Time {
	return DayStart(t).Add(24*time.Hour - time.Nanosecond)
}

// Recompute rebuilds the rollups of every day from since's UTC day onwards
// that has orders. Whole days are recomputed so a watermark in the middle of a
// day never drops that day's earlier orders. Running it again over the same
// orders yields the same rows.
func (a *Aggregator) Recompute(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.DailyMetric, error) {
	from := DayStart(since)
	rows, err := a.orders.ListCreatedSince(ctx, storeID, from)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	byDay := make(map[time.Time]*models.DailyMetric)
	now := a.now().UTC()
	for _, o := range rows {
		day := DayStart(o.CreatedAt)
		m, ok := byDay[day]
		if !ok {
			m = &models.DailyMetric{
				ID:           uuid.New(),
				StoreID:      storeID,
				Date:         day,
				Revenue:      decimal.Zero,
				Cost:         decimal.Zero,
				AdSpend:      decimal.Zero,
				ShippingCost: decimal.Zero,
				Profit:       decimal.Zero,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			byDay[day] = m
		}
		m.Revenue = m.Revenue.Add(o.TotalPrice)
		m.Cost = m.Cost.Add(o.TotalCost)
		m.ShippingCost = m.ShippingCost.Add(o.ShippingCost)
		m.Profit = m.Profit.Add(o.Profit)
		m.OrderCount++
	}

	out := make([]models.DailyMetric, 0, len(byDay))
	for _, m := range byDay {
		m.Margin = orders.Margin(m.Profit, m.Revenue)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	if err := a.repo.UpsertOrderTotals(ctx, out); err != nil {
		return nil, fmt.Errorf("upsert daily metrics: %w", err)
	}
	return out, nil
}

// ApplyAdSpend writes per-day ad spend without touching order totals.
func (a *Aggregator) ApplyAdSpend(ctx context.Context, storeID uuid.UUID, days []DaySpend) error {
	if len(days) == 0 {
		return nil
	}
	merged := make(map[time.Time]decimal.Decimal, len(days))
	for _, d := range days {
		day := DayStart(d.Date)
		merged[day] = merged[day].Add(d.Amount)
	}

	now := a.now().UTC()
	rows := make([]models.DailyMetric, 0, len(merged))
	for day, amount := range merged {
		rows = append(rows, models.DailyMetric{
			ID:           uuid.New(),
			StoreID:      storeID,
			Date:         day,
			Revenue:      decimal.Zero,
			Cost:         decimal.Zero,
			AdSpend:      amount.Round(2),
			ShippingCost: decimal.Zero,
			Profit:       decimal.Zero,
			Margin:       decimal.Zero,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	if err := a.repo.UpsertAdSpend(ctx, rows); err != nil {
		return fmt.Errorf("upsert ad spend rollups: %w", err)
	}
	return nil
}

// Range returns the stored rollups for the UTC days covering [from, to].
func (a *Aggregator) Range(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.DailyMetric, error) {
	return a.repo.ListRange(ctx, storeID, DayStart(from), DayStart(to))
}
