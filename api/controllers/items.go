package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hauntworks/hauntworks-backend/api/responses"
	"github.com/hauntworks/hauntworks-backend/api/validators"
	inventorysvc "github.com/hauntworks/hauntworks-backend/internal/inventory"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

type createItemRequest struct {
	SKU          string           `json:"sku" validate:"required"`
	Name         string           `json:"name" validate:"required"`
	TypeID       string           `json:"type_id" validate:"required,uuid"`
	CategoryID   *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
	AttractionID *string          `json:"attraction_id,omitempty" validate:"omitempty,uuid"`
	Quantity     int              `json:"quantity" validate:"min=0"`
	MinQuantity  int              `json:"min_quantity" validate:"min=0"`
	MaxQuantity  *int             `json:"max_quantity,omitempty" validate:"omitempty,min=0"`
	Unit         string           `json:"unit,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	Location     *string          `json:"location,omitempty"`
	Condition    string           `json:"condition,omitempty" validate:"omitempty,oneof=new good fair poor broken"`
	Notes        *string          `json:"notes,omitempty"`
}

func (req createItemRequest) toInput() (inventorysvc.CreateItemInput, error) {
	typeID, err := uuid.Parse(req.TypeID)
	if err != nil {
		return inventorysvc.CreateItemInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid field").
			WithDetails(map[string]any{"field": "type_id"})
	}
	categoryID, err := parseOptionalUUID(req.CategoryID, "category_id")
	if err != nil {
		return inventorysvc.CreateItemInput{}, err
	}
	attractionID, err := parseOptionalUUID(req.AttractionID, "attraction_id")
	if err != nil {
		return inventorysvc.CreateItemInput{}, err
	}
	return inventorysvc.CreateItemInput{
		SKU:          req.SKU,
		Name:         req.Name,
		TypeID:       typeID,
		CategoryID:   categoryID,
		AttractionID: attractionID,
		Quantity:     req.Quantity,
		MinQuantity:  req.MinQuantity,
		MaxQuantity:  req.MaxQuantity,
		Unit:         req.Unit,
		UnitCost:     req.UnitCost,
		Location:     req.Location,
		Condition:    enums.ItemCondition(req.Condition),
		Notes:        req.Notes,
	}, nil
}

type updateItemRequest struct {
	SKU          string           `json:"sku" validate:"required"`
	Name         string           `json:"name" validate:"required"`
	CategoryID   *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
	AttractionID *string          `json:"attraction_id,omitempty" validate:"omitempty,uuid"`
	MinQuantity  int              `json:"min_quantity" validate:"min=0"`
	MaxQuantity  *int             `json:"max_quantity,omitempty" validate:"omitempty,min=0"`
	Unit         string           `json:"unit,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	Location     *string          `json:"location,omitempty"`
	Condition    string           `json:"condition,omitempty" validate:"omitempty,oneof=new good fair poor broken"`
	Notes        *string          `json:"notes,omitempty"`
}

type adjustItemRequest struct {
	Delta  int     `json:"delta" validate:"required"`
	Reason string  `json:"reason" validate:"required,oneof=purchase adjustment damaged lost disposed"`
	Note   *string `json:"note,omitempty"`
}

// CreateItem handles POST /items.
func CreateItem(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), who.OrgID, who.UserID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// GetItem handles GET /items/{id}.
func GetItem(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), who.OrgID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// UpdateItem handles PATCH /items/{id}. Quantity never moves through this
// route; clients adjust stock via POST /items/{id}/adjust.
func UpdateItem(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := parseOptionalUUID(payload.CategoryID, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attractionID, err := parseOptionalUUID(payload.AttractionID, "attraction_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), who.OrgID, who.UserID, itemID, inventorysvc.UpdateItemInput{
			SKU:          payload.SKU,
			Name:         payload.Name,
			CategoryID:   categoryID,
			AttractionID: attractionID,
			MinQuantity:  payload.MinQuantity,
			MaxQuantity:  payload.MaxQuantity,
			Unit:         payload.Unit,
			UnitCost:     payload.UnitCost,
			Location:     payload.Location,
			Condition:    enums.ItemCondition(payload.Condition),
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ListItems handles GET /items.
func ListItems(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListItems(r.Context(), inventorysvc.ListItemsInput{
			OrgID:      who.OrgID,
			CategoryID: categoryID,
			Search:     strings.TrimSpace(r.URL.Query().Get("q")),
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// LowStockItems handles GET /items/low-stock.
func LowStockItems(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.LowStock(r.Context(), who.OrgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// AdjustItem handles POST /items/{id}/adjust.
func AdjustItem(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adjustment, err := svc.AdjustQuantity(r.Context(), who.OrgID, who.UserID, itemID, inventorysvc.AdjustInput{
			Delta:  payload.Delta,
			Reason: enums.TransactionType(payload.Reason),
			Note:   payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, adjustment)
	}
}
