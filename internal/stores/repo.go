package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marginly/marginly-backend/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by its UUID regardless of owner or active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindOwnedActive loads an active store only if ownerID owns it.
func (r *Repository) FindOwnedActive(ctx context.Context, id, ownerID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND is_active = ?", id, ownerID, true).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ListActiveByOwner returns the owner's active stores, newest first.
func (r *Repository) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("created_at DESC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// ListActive returns every active store across tenants.
func (r *Repository) ListActive(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// ListAll returns every store, used by credential rotation.
func (r *Repository) ListAll(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// UpdateOwned applies columns to a store owned by ownerID and reports whether
// a row matched.
func (r *Repository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, columns map[string]any) (bool, error) {
	columns["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(columns)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateTokens overwrites the encrypted token columns of one store.
func (r *Repository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, adsRefreshToken *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":      accessToken,
			"ads_refresh_token": adsRefreshToken,
			"updated_at":        time.Now().UTC(),
		}).Error
}

// AdvanceWatermark sets last_synced_at to at unless the stored value is
// already newer. It reports whether the row moved.
func (r *Repository) AdvanceWatermark(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	at = at.UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ? AND (last_synced_at IS NULL OR last_synced_at < ?)", id, at).
		Updates(map[string]any{
			"last_synced_at": at,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteOwned removes a store and everything derived from it. Postgres
// cascades on its own; the explicit deletes keep SQLite consistent too.
func (r *Repository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var store models.Store
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&store).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.Order{}, &models.DailyMetric{}, &models.AdSpend{}} {
			if err := tx.Where("store_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Store{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
