package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/api/responses"
	"github.com/marginly/marginly-backend/api/validators"
	"github.com/marginly/marginly-backend/internal/stores"
	pkgerrors "github.com/marginly/marginly-backend/pkg/errors"
	"github.com/marginly/marginly-backend/pkg/logger"
)

// StoreService is the slice of the credential store the HTTP layer uses.
type StoreService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input stores.CreateStoreInput) (*stores.StoreDTO, error)
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]stores.StoreSummary, error)
	UpdateCredentials(ctx context.Context, storeID, ownerID uuid.UUID, input stores.UpdateCredentialsInput) (*stores.StoreDTO, error)
	Delete(ctx context.Context, storeID, ownerID uuid.UUID) error
}

type createStoreRequest struct {
	Domain      string  `json:"domain" validate:"required,max=255"`
	AccessToken string  `json:"accessToken" validate:"required"`
	ShopID      *string `json:"shopId,omitempty" validate:"omitempty,max=64"`
	Name        string  `json:"name" validate:"required,max=255"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Timezone    string  `json:"timezone,omitempty" validate:"omitempty,max=64"`
}

func (r createStoreRequest) toInput() stores.CreateStoreInput {
	return stores.CreateStoreInput{
		Domain:      validators.SanitizeString(r.Domain, 255),
		AccessToken: r.AccessToken,
		ShopID:      r.ShopID,
		Name:        validators.SanitizeString(r.Name, 255),
		Currency:    validators.SanitizeString(r.Currency, 3),
		Timezone:    validators.SanitizeString(r.Timezone, 64),
	}
}

type updateCredentialsRequest struct {
	AccessToken     *string `json:"accessToken,omitempty" validate:"omitempty,min=1"`
	AdsCustomerID   *string `json:"adsCustomerId,omitempty" validate:"omitempty,max=32"`
	AdsRefreshToken *string `json:"adsRefreshToken,omitempty" validate:"omitempty,min=1"`
}

func (r updateCredentialsRequest) toInput() stores.UpdateCredentialsInput {
	return stores.UpdateCredentialsInput{
		AccessToken:     r.AccessToken,
		AdsCustomerID:   r.AdsCustomerID,
		AdsRefreshToken: r.AdsRefreshToken,
	}
}

// StoreList returns the caller's active stores.
func StoreList(svc StoreService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		ownerID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListActive(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []stores.StoreSummary{}
		}

		responses.WriteSuccess(w, list)
	}
}

// StoreCreate connects a storefront for the caller.
func StoreCreate(svc StoreService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		ownerID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Create(r.Context(), ownerID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

func StoreUpdateCredentials(svc StoreService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		storeID, ownerID, err := scopedStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCredentialsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.UpdateCredentials(r.Context(), storeID, ownerID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}

func StoreDelete(svc StoreService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		storeID, ownerID, err := scopedStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), storeID, ownerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
