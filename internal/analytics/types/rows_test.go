package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/marginly/marginly-backend/pkg/db/models"
)

func TestDailyMetricRowFromModel(t *testing.T) {
	storeID := uuid.New()
	m := models.DailyMetric{
		StoreID:    storeID,
		Date:       time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC),
		Revenue:    decimal.RequireFromString("120.50"),
		Cost:       decimal.RequireFromString("40"),
		Profit:     decimal.RequireFromString("70.50"),
		Margin:     decimal.RequireFromString("0.5851"),
		OrderCount: 3,
	}
	syncedAt := time.Date(2026, 4, 10, 8, 0, 0, 0, time.FixedZone("x", 3600))

	row := DailyMetricRowFromModel(m, syncedAt, "evt-1")

	assert.Equal(t, storeID.String(), row.StoreID)
	assert.Equal(t, "2026-04-09", row.Date.String())
	assert.Equal(t, "241/2", row.Revenue.String())
	assert.Equal(t, int64(3), row.OrderCount)
	assert.Equal(t, time.UTC, row.SyncedAt.Location())
	assert.Equal(t, "evt-1:"+storeID.String()+":2026-04-09", row.InsertID())
	assert.Equal(t, row.InsertID(), row.Saver().InsertID)
}
