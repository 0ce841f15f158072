package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryType is shared reference data describing a class of equipment.
// Key is unique and immutable after creation.
type InventoryType struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Key              string    `gorm:"column:key;not null;uniqueIndex"`
	Name             string    `gorm:"column:name;not null"`
	Consumable       bool      `gorm:"column:consumable;not null;default:false"`
	RequiresCheckout bool      `gorm:"column:requires_checkout;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (t *InventoryType) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
