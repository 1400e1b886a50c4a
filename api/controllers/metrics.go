package controllers

import (
	"context"
	"math"
	"net/http"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/api/responses"
	"github.com/marginly/marginly-backend/api/validators"
	"github.com/marginly/marginly-backend/internal/dashboard"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
)

type MetricsReader interface {
	Read(ctx context.Context, storeID, ownerID uuid.UUID, days int) (*dashboard.Metrics, error)
}

// StoreMetrics serves the profit dashboard for the last `days` days.
func StoreMetrics(svc MetricsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "metrics service unavailable"))
			return
		}

		storeID, ownerID, err := scopedStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Out of range values are clamped rather than rejected.
		days, err := validators.ParseQueryInt(r, "days", dashboard.DefaultDays, math.MinInt32, math.MaxInt32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		metrics, err := svc.Read(r.Context(), storeID, ownerID, dashboard.ClampDays(days))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, metrics)
	}
}
