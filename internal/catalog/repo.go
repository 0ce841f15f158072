package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
)

// Repository persists categories and item types.
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

func (r *Repository) CreateCategory(ctx context.Context, category *models.InventoryCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) FindCategoryByID(ctx context.Context, orgID, id uuid.UUID) (*models.InventoryCategory, error) {
	var category models.InventoryCategory
	err := r.db.WithContext(ctx).
		First(&category, "id = ? AND org_id = ?", id, orgID).
		Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, category *models.InventoryCategory) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryCategory{}).
		Where("id = ? AND org_id = ?", category.ID, category.OrgID).
		Updates(map[string]any{
			"name":        category.Name,
			"parent_id":   category.ParentID,
			"description": category.Description,
			"color":       category.Color,
			"icon":        category.Icon,
		}).Error
}

func (r *Repository) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Delete(&models.InventoryCategory{}).
		Error
}

// ListCategories returns every category in the organization, name-ordered.
// Category trees are small enough to load whole; tree assembly and cycle
// checks happen in memory.
func (r *Repository) ListCategories(ctx context.Context, orgID uuid.UUID) ([]models.InventoryCategory, error) {
	var rows []models.InventoryCategory
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *Repository) CountChildren(ctx context.Context, orgID, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryCategory{}).
		Where("org_id = ? AND parent_id = ?", orgID, parentID).
		Count(&count).
		Error
	return count, err
}

func (r *Repository) CreateType(ctx context.Context, row *models.InventoryType) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) FindTypeByID(ctx context.Context, id uuid.UUID) (*models.InventoryType, error) {
	var row models.InventoryType
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListTypes(ctx context.Context) ([]models.InventoryType, error) {
	var rows []models.InventoryType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}
