package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/enums"
)

// InventoryTransaction records one immutable quantity change with
// before/after snapshots. NewQuantity = PreviousQuantity + Delta always.
type InventoryTransaction struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrgID            uuid.UUID             `gorm:"column:org_id;type:uuid;not null;index"`
	ItemID           uuid.UUID             `gorm:"column:item_id;type:uuid;not null;index"`
	Type             enums.TransactionType `gorm:"column:type;type:inventory_transaction_type;not null"`
	Delta            int                   `gorm:"column:delta;not null"`
	PreviousQuantity int                   `gorm:"column:previous_quantity;not null"`
	NewQuantity      int                   `gorm:"column:new_quantity;not null"`
	Reason           *string               `gorm:"column:reason"`
	ActorID          uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}

func (t *InventoryTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
