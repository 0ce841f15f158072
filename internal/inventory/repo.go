package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/pagination"
)

// Repository wires together item and transaction persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateItem inserts a new item row.
func (r *Repository) CreateItem(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID loads the item with its type and category display data.
func (r *Repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("Category").
		First(&item, "id = ? AND org_id = ?", id, orgID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem persists metadata changes. Quantity is never written here; it
// belongs exclusively to ApplyDelta.
func (r *Repository) UpdateItem(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND org_id = ?", item.ID, item.OrgID).
		Omit("quantity").
		Updates(map[string]any{
			"sku":           item.SKU,
			"name":          item.Name,
			"category_id":   item.CategoryID,
			"attraction_id": item.AttractionID,
			"min_quantity":  item.MinQuantity,
			"max_quantity":  item.MaxQuantity,
			"unit":          item.Unit,
			"unit_cost":     item.UnitCost,
			"location":      item.Location,
			"condition":     item.Condition,
			"notes":         item.Notes,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, item.OrgID, item.ID)
}

// CountByCategory reports how many items reference the category.
func (r *Repository) CountByCategory(ctx context.Context, orgID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("org_id = ? AND category_id = ?", orgID, categoryID).
		Count(&count).Error
	return count, err
}

// ListLowStock returns items at or below their reorder threshold.
func (r *Repository) ListLowStock(ctx context.Context, orgID uuid.UUID) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("Category").
		Where("org_id = ? AND quantity <= min_quantity", orgID).
		Order("name ASC").
		Find(&rows).
		Error
	return rows, err
}

type itemListQuery struct {
	OrgID       uuid.UUID
	CategoryIDs []uuid.UUID
	Search      string
	Pagination  pagination.Params
}

// ItemListResult is one page of items plus the cursor for the next page.
type ItemListResult struct {
	Items      []models.InventoryItem
	NextCursor string
}

// ListItems pages through the tenant's items newest first.
func (r *Repository) ListItems(ctx context.Context, query itemListQuery) (*ItemListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Preload("Type").
		Preload("Category").
		Where("org_id = ?", query.OrgID)

	if len(query.CategoryIDs) > 0 {
		qb = qb.Where("category_id IN ?", query.CategoryIDs)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InventoryItem
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

	return &ItemListResult{Items: rows, NextCursor: nextCursor}, nil
}

// ApplyDelta performs the conditional in-place quantity update. The WHERE
// guard makes the negative-quantity check and the write a single atomic
// statement; zero rows affected means the item is missing or the delta would
// drive quantity below zero. Callers distinguish the two with a follow-up read
// inside the same transaction.
func (r *Repository) ApplyDelta(ctx context.Context, orgID, itemID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND org_id = ? AND quantity + ? >= 0", itemID, orgID, delta).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// QuantityByID reads the bare quantity for an item, reporting existence.
func (r *Repository) QuantityByID(ctx context.Context, orgID, itemID uuid.UUID) (int, bool, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Select("id", "quantity").
		First(&item, "id = ? AND org_id = ?", itemID, orgID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return item.Quantity, true, nil
}

// CreateTransaction appends one immutable log row.
func (r *Repository) CreateTransaction(ctx context.Context, row *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(row).Error
}
