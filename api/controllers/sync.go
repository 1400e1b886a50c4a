package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/api/responses"
	"github.com/marginly/marginly-backend/internal/ordersync"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
)

type StoreSyncer interface {
	Sync(ctx context.Context, storeID, ownerID uuid.UUID) (ordersync.Result, error)
}

type syncResponse struct {
	ProcessedCount int       `json:"processedCount"`
	TotalOrders    int       `json:"totalOrders"`
	SyncedAt       time.Time `json:"syncedAt"`
}

// StoreSync runs an order sync pass for one of the caller's stores and
// blocks until it finishes.
func StoreSync(svc StoreSyncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		storeID, ownerID, err := scopedStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, storeID.String())
		}

		result, err := svc.Sync(ctx, storeID, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, syncResponse{
			ProcessedCount: result.ProcessedCount,
			TotalOrders:    result.TotalOrders,
			SyncedAt:       result.SyncedAt,
		})
	}
}
