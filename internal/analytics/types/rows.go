package types

import (
	"math/big"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/marginly/marginly-backend/pkg/db/models"
)

// DailyMetricRow mirrors the daily_metrics BigQuery schema. Each sync appends
// a snapshot; readers take the latest synced_at per (store_id, date).
type DailyMetricRow struct {
	StoreID      string     `bigquery:"store_id"`
	Date         civil.Date `bigquery:"date"`
	Revenue      *big.Rat   `bigquery:"revenue"`
	Cost         *big.Rat   `bigquery:"cost"`
	AdSpend      *big.Rat   `bigquery:"ad_spend"`
	ShippingCost *big.Rat   `bigquery:"shipping_cost"`
	Profit       *big.Rat   `bigquery:"profit"`
	Margin       *big.Rat   `bigquery:"margin"`
	OrderCount   int64      `bigquery:"order_count"`
	SyncedAt     time.Time  `bigquery:"synced_at"`
	EventID      string     `bigquery:"event_id"`
}

// InsertID dedupes redelivered snapshots on the streaming insert path.
func (r DailyMetricRow) InsertID() string {
	return r.EventID + ":" + r.StoreID + ":" + r.Date.String()
}

// Saver wraps the row so BigQuery receives its insert id.
func (r *DailyMetricRow) Saver() *cbigquery.StructSaver {
	return &cbigquery.StructSaver{Struct: r, InsertID: r.InsertID()}
}

// DailyMetricRowFromModel converts a stored rollup into a snapshot row.
func DailyMetricRowFromModel(m models.DailyMetric, syncedAt time.Time, eventID string) DailyMetricRow {
	return DailyMetricRow{
		StoreID:      m.StoreID.String(),
		Date:         civil.DateOf(m.Date.UTC()),
		Revenue:      m.Revenue.Rat(),
		Cost:         m.Cost.Rat(),
		AdSpend:      m.AdSpend.Rat(),
		ShippingCost: m.ShippingCost.Rat(),
		Profit:       m.Profit.Rat(),
		Margin:       m.Margin.Rat(),
		OrderCount:   int64(m.OrderCount),
		SyncedAt:     syncedAt.UTC(),
		EventID:      eventID,
	}
}
