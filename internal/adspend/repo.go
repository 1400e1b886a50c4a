package adspend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marginly/marginly-backend/internal/repo"
	"github.com/marginly/marginly-backend/pkg/db/models"
)

type Repository interface {
	Upsert(ctx context.Context, rows []models.AdSpend) error
	ListRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.AdSpend, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

// Upsert replaces the metrics of existing (store, platform, campaign, date)
// rows and inserts the rest.
func (r *repository) Upsert(ctx context.Context, rows []models.AdSpend) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "platform"}, {Name: "campaign_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"campaign_name", "amount", "clicks", "impressions", "conversions", "updated_at",
		}),
	}).Create(&rows).Error
}

func (r *repository) ListRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.AdSpend, error) {
	var rows []models.AdSpend
	err := r.DB(ctx).
		Where("store_id = ? AND date >= ? AND date <= ?", storeID, from.UTC(), to.UTC()).
		Order("date ASC, campaign_id ASC").
		Find(&rows).Error
	return rows, err
}
