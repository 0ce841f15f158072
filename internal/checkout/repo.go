package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	"github.com/hauntworks/hauntworks-backend/pkg/pagination"
)

// Repository persists checkout rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, row *models.InventoryCheckout) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.InventoryCheckout, error) {
	var row models.InventoryCheckout
	err := r.db.WithContext(ctx).
		First(&row, "id = ? AND org_id = ?", id, orgID).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkReturned closes the checkout. The returned_at IS NULL guard makes the
// active check and the close a single atomic statement; zero rows affected
// means someone already returned it.
func (r *Repository) MarkReturned(ctx context.Context, orgID, id uuid.UUID, returnedAt time.Time, conditionIn *enums.ItemCondition, notes *string) (int64, error) {
	updates := map[string]any{
		"returned_at":  returnedAt,
		"condition_in": conditionIn,
	}
	if notes != nil {
		updates["notes"] = notes
	}
	res := r.db.WithContext(ctx).
		Model(&models.InventoryCheckout{}).
		Where("id = ? AND org_id = ? AND returned_at IS NULL", id, orgID).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

type listQuery struct {
	OrgID      uuid.UUID
	StaffID    *uuid.UUID
	ActiveOnly bool
	Pagination pagination.Params
}

// ListResult is one page of checkouts plus the cursor for the next page.
type ListResult struct {
	Checkouts  []models.InventoryCheckout
	NextCursor string
}

// List pages through checkouts newest first.
func (r *Repository) List(ctx context.Context, query listQuery) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Where("org_id = ?", query.OrgID)
	if query.StaffID != nil {
		qb = qb.Where("staff_id = ?", *query.StaffID)
	}
	if query.ActiveOnly {
		qb = qb.Where("returned_at IS NULL")
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InventoryCheckout
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

	return &ListResult{Checkouts: rows, NextCursor: nextCursor}, nil
}

// ListOverdue returns active checkouts whose due date has passed.
func (r *Repository) ListOverdue(ctx context.Context, orgID uuid.UUID, now time.Time) ([]models.InventoryCheckout, error) {
	var rows []models.InventoryCheckout
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND returned_at IS NULL AND due_date IS NOT NULL AND due_date < ?", orgID, now).
		Order("due_date ASC").
		Find(&rows).
		Error
	return rows, err
}

// CountActive reports the number of open checkouts in the organization.
func (r *Repository) CountActive(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryCheckout{}).
		Where("org_id = ? AND returned_at IS NULL", orgID).
		Count(&count).
		Error
	return count, err
}
