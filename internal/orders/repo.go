package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marginly/marginly-backend/internal/repo"
	"github.com/marginly/marginly-backend/pkg/db/models"
)

// Repository defines persistence operations for imported orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ExistsByUpstreamID(ctx context.Context, upstreamID string) (bool, error)
	Create(ctx context.Context, order *models.Order) error
	ListCreatedSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.Order, error)
	Recent(ctx context.Context, storeID uuid.UUID, from, to time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) ExistsByUpstreamID(ctx context.Context, upstreamID string) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("upstream_order_id = ?", upstreamID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.DB(ctx).Create(order).Error
}

// ListCreatedSince returns the store's orders created at or after since,
// oldest first.
func (r *repository) ListCreatedSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Where("store_id = ? AND created_at >= ?", storeID, since.UTC()).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// Recent returns up to limit orders created within [from, to], newest first.
func (r *repository) Recent(ctx context.Context, storeID uuid.UUID, from, to time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Where("store_id = ? AND created_at >= ? AND created_at <= ?", storeID, from.UTC(), to.UTC()).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
