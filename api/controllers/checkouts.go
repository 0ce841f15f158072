package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hauntworks/hauntworks-backend/api/responses"
	"github.com/hauntworks/hauntworks-backend/api/validators"
	checkoutsvc "github.com/hauntworks/hauntworks-backend/internal/checkout"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

type createCheckoutRequest struct {
	ItemID       string     `json:"item_id" validate:"required,uuid"`
	StaffID      string     `json:"staff_id" validate:"required,uuid"`
	Quantity     int        `json:"quantity" validate:"required,min=1"`
	ConditionOut string     `json:"condition_out" validate:"required,oneof=new good fair poor broken"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

type returnCheckoutRequest struct {
	ConditionIn *string `json:"condition_in,omitempty" validate:"omitempty,oneof=new good fair poor broken"`
	Notes       *string `json:"notes,omitempty"`
}

// CreateCheckout handles POST /checkouts.
func CreateCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid field").
				WithDetails(map[string]any{"field": "item_id"}))
			return
		}
		staffID, err := uuid.Parse(payload.StaffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid field").
				WithDetails(map[string]any{"field": "staff_id"}))
			return
		}

		created, err := svc.Create(r.Context(), who.OrgID, who.UserID, checkoutsvc.CreateInput{
			ItemID:       itemID,
			StaffID:      staffID,
			Quantity:     payload.Quantity,
			ConditionOut: enums.ItemCondition(payload.ConditionOut),
			DueDate:      payload.DueDate,
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ReturnCheckout handles POST /checkouts/{id}/return.
func ReturnCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload returnCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var conditionIn *enums.ItemCondition
		if payload.ConditionIn != nil {
			condition := enums.ItemCondition(*payload.ConditionIn)
			conditionIn = &condition
		}

		returned, err := svc.Return(r.Context(), who.OrgID, who.UserID, checkoutID, checkoutsvc.ReturnInput{
			ConditionIn: conditionIn,
			Notes:       payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, returned)
	}
}

// GetCheckout handles GET /checkouts/{id}.
func GetCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Get(r.Context(), who.OrgID, checkoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, row)
	}
}

// ListCheckouts handles GET /checkouts.
func ListCheckouts(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		staffID, err := validators.ParseQueryUUID(r, "staff_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), checkoutsvc.ListInput{
			OrgID:      who.OrgID,
			StaffID:    staffID,
			ActiveOnly: activeOnly,
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// OverdueCheckouts handles GET /checkouts/overdue.
func OverdueCheckouts(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Overdue(r.Context(), who.OrgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
