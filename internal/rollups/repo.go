package rollups

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marginly/marginly-backend/internal/repo"
	"github.com/marginly/marginly-backend/pkg/db/models"
)

var (
	conflictColumns = []clause.Column{{Name: "store_id"}, {Name: "date"}}
	orderColumns    = []string{"revenue", "cost", "shipping_cost", "profit", "margin", "order_count", "updated_at"}
	adSpendColumns  = []string{"ad_spend", "updated_at"}
)

// Repository persists daily rollups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertOrderTotals(ctx context.Context, rows []models.DailyMetric) error
	UpsertAdSpend(ctx context.Context, rows []models.DailyMetric) error
	ListRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.DailyMetric, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// UpsertOrderTotals overwrites the order-derived columns and leaves ad_spend
// as it was.
func (r *repository) UpsertOrderTotals(ctx context.Context, rows []models.DailyMetric) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   conflictColumns,
		DoUpdates: clause.AssignmentColumns(orderColumns),
	}).Create(&rows).Error
}

// UpsertAdSpend overwrites only ad_spend. Days without orders get a zero row.
func (r *repository) UpsertAdSpend(ctx context.Context, rows []models.DailyMetric) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   conflictColumns,
		DoUpdates: clause.AssignmentColumns(adSpendColumns),
	}).Create(&rows).Error
}

// ListRange returns rollups with from <= date <= to, oldest first.
func (r *repository) ListRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.DailyMetric, error) {
	var rows []models.DailyMetric
	err := r.DB(ctx).
		Where("store_id = ? AND date >= ? AND date <= ?", storeID, from.UTC(), to.UTC()).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}
