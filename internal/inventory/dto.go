package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
)

// ItemDTO is the item shape returned to controllers, with type and category
// display data joined in.
type ItemDTO struct {
	ID           uuid.UUID           `json:"id"`
	OrgID        uuid.UUID           `json:"org_id"`
	SKU          string              `json:"sku"`
	Name         string              `json:"name"`
	TypeID       uuid.UUID           `json:"type_id"`
	TypeKey      *string             `json:"type_key,omitempty"`
	TypeName     *string             `json:"type_name,omitempty"`
	CategoryID   *uuid.UUID          `json:"category_id,omitempty"`
	CategoryName *string             `json:"category_name,omitempty"`
	AttractionID *uuid.UUID          `json:"attraction_id,omitempty"`
	Quantity     int                 `json:"quantity"`
	MinQuantity  int                 `json:"min_quantity"`
	MaxQuantity  *int                `json:"max_quantity,omitempty"`
	Unit         string              `json:"unit"`
	UnitCost     *decimal.Decimal    `json:"unit_cost,omitempty"`
	Location     *string             `json:"location,omitempty"`
	Condition    enums.ItemCondition `json:"condition"`
	Notes        *string             `json:"notes,omitempty"`
	LowStock     bool                `json:"low_stock"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toItemDTO(item *models.InventoryItem) *ItemDTO {
	dto := &ItemDTO{
		ID:           item.ID,
		OrgID:        item.OrgID,
		SKU:          item.SKU,
		Name:         item.Name,
		TypeID:       item.TypeID,
		CategoryID:   item.CategoryID,
		AttractionID: item.AttractionID,
		Quantity:     item.Quantity,
		MinQuantity:  item.MinQuantity,
		MaxQuantity:  item.MaxQuantity,
		Unit:         item.Unit,
		UnitCost:     item.UnitCost,
		Location:     item.Location,
		Condition:    item.Condition,
		Notes:        item.Notes,
		LowStock:     item.LowStock(),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if item.Type != nil {
		dto.TypeKey = &item.Type.Key
		dto.TypeName = &item.Type.Name
	}
	if item.Category != nil {
		dto.CategoryName = &item.Category.Name
	}
	return dto
}

// AdjustmentDTO reports the outcome of a quantity adjustment.
type AdjustmentDTO struct {
	TransactionID    uuid.UUID             `json:"transaction_id"`
	ItemID           uuid.UUID             `json:"item_id"`
	Type             enums.TransactionType `json:"type"`
	Delta            int                   `json:"delta"`
	PreviousQuantity int                   `json:"previous_quantity"`
	NewQuantity      int                   `json:"new_quantity"`
	CreatedAt        time.Time             `json:"created_at"`
}

func toAdjustmentDTO(row *models.InventoryTransaction) *AdjustmentDTO {
	return &AdjustmentDTO{
		TransactionID:    row.ID,
		ItemID:           row.ItemID,
		Type:             row.Type,
		Delta:            row.Delta,
		PreviousQuantity: row.PreviousQuantity,
		NewQuantity:      row.NewQuantity,
		CreatedAt:        row.CreatedAt,
	}
}

// ItemListPage is one page of item DTOs.
type ItemListPage struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
