package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryCategory is a node in the per-organization category tree.
// Parent chains are acyclic; deletion requires zero items and zero children.
type InventoryCategory struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrgID       uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index"`
	Name        string     `gorm:"column:name;not null"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	Description *string    `gorm:"column:description"`
	Color       *string    `gorm:"column:color"`
	Icon        *string    `gorm:"column:icon"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *InventoryCategory) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
