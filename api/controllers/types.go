package controllers

import (
	"net/http"

	"github.com/hauntworks/hauntworks-backend/api/responses"
	"github.com/hauntworks/hauntworks-backend/api/validators"
	catalogsvc "github.com/hauntworks/hauntworks-backend/internal/catalog"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

type typeRequest struct {
	Key              string `json:"key" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Consumable       bool   `json:"consumable"`
	RequiresCheckout bool   `json:"requires_checkout"`
}

// CreateType handles POST /types. Types are shared reference data, not
// organization-scoped.
func CreateType(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload typeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateType(r.Context(), who.UserID, catalogsvc.TypeInput{
			Key:              payload.Key,
			Name:             payload.Name,
			Consumable:       payload.Consumable,
			RequiresCheckout: payload.RequiresCheckout,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ListTypes handles GET /types.
func ListTypes(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		rows, err := svc.ListTypes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
