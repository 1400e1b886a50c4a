package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/api/middleware"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func storeIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "storeId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id").
			WithDetails(map[string]any{"field": "storeId"})
	}
	return id, nil
}

// scopedStore resolves the caller and the store path parameter together.
func scopedStore(r *http.Request) (storeID, ownerID uuid.UUID, err error) {
	ownerID, err = callerID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	storeID, err = storeIDParam(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return storeID, ownerID, nil
}
