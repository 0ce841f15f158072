package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/enums"
)

// InventoryItem is the single source of truth for on-hand quantity.
// Quantity is mutated only through the ledger's conditional adjust update.
type InventoryItem struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrgID        uuid.UUID           `gorm:"column:org_id;type:uuid;not null;index"`
	SKU          string              `gorm:"column:sku;not null"`
	Name         string              `gorm:"column:name;not null"`
	TypeID       uuid.UUID           `gorm:"column:type_id;type:uuid;not null"`
	CategoryID   *uuid.UUID          `gorm:"column:category_id;type:uuid;index"`
	AttractionID *uuid.UUID          `gorm:"column:attraction_id;type:uuid"`
	Quantity     int                 `gorm:"column:quantity;not null;default:0"`
	MinQuantity  int                 `gorm:"column:min_quantity;not null;default:0"`
	MaxQuantity  *int                `gorm:"column:max_quantity"`
	Unit         string              `gorm:"column:unit;not null;default:'each'"`
	UnitCost     *decimal.Decimal    `gorm:"column:unit_cost;type:numeric(12,2)"`
	Location     *string             `gorm:"column:location"`
	Condition    enums.ItemCondition `gorm:"column:condition;not null;default:'good'"`
	Notes        *string             `gorm:"column:notes"`
	Type         *InventoryType      `gorm:"foreignKey:TypeID"`
	Category     *InventoryCategory  `gorm:"foreignKey:CategoryID"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side so inserts behave the same
// across Postgres and the sqlite test databases.
func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LowStock reports whether the item is at or below its reorder threshold.
func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.MinQuantity
}
