package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/enums"
)

// InventoryCheckout reserves quantity against a staff member. A checkout is
// active while ReturnedAt is null and transitions to returned exactly once.
type InventoryCheckout struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrgID        uuid.UUID            `gorm:"column:org_id;type:uuid;not null;index"`
	ItemID       uuid.UUID            `gorm:"column:item_id;type:uuid;not null;index"`
	StaffID      uuid.UUID            `gorm:"column:staff_id;type:uuid;not null;index"`
	Quantity     int                  `gorm:"column:quantity;not null"`
	ConditionOut enums.ItemCondition  `gorm:"column:condition_out;not null"`
	CheckedOutAt time.Time            `gorm:"column:checked_out_at;not null;autoCreateTime"`
	DueDate      *time.Time           `gorm:"column:due_date"`
	ReturnedAt   *time.Time           `gorm:"column:returned_at;index"`
	ConditionIn  *enums.ItemCondition `gorm:"column:condition_in"`
	Notes        *string              `gorm:"column:notes"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *InventoryCheckout) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Active reports whether the checkout still holds quantity.
func (c InventoryCheckout) Active() bool {
	return c.ReturnedAt == nil
}
