package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/pagination"
)

// Repository reads the append-only transaction log. Writes happen only
// through the ledger's adjust primitive; this package never mutates rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type listQuery struct {
	OrgID      uuid.UUID
	ItemID     *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// ListResult is one page of log rows plus the cursor for the next page.
type ListResult struct {
	Transactions []models.InventoryTransaction
	NextCursor   string
}

// List pages through the log newest first.
func (r *Repository) List(ctx context.Context, query listQuery) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Where("org_id = ?", query.OrgID)
	if query.ItemID != nil {
		qb = qb.Where("item_id = ?", *query.ItemID)
	}
	if query.From != nil {
		qb = qb.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		qb = qb.Where("created_at < ?", *query.To)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InventoryTransaction
	err = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ListResult{Transactions: rows, NextCursor: nextCursor}, nil
}
