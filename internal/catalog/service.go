package catalog

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/audit"
	"github.com/hauntworks/hauntworks-backend/pkg/db"
	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

// ItemCounter is the slice of the item ledger the catalog needs: delete
// protection requires knowing whether items still reference a category.
type ItemCounter interface {
	CountByCategory(ctx context.Context, orgID, categoryID uuid.UUID) (int64, error)
}

// CategoryDTO is the flat category shape.
type CategoryDTO struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	Name        string     `json:"name"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Description *string    `json:"description,omitempty"`
	Color       *string    `json:"color,omitempty"`
	Icon        *string    `json:"icon,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CategoryNode is one node of the nested tree view.
type CategoryNode struct {
	CategoryDTO
	Children []CategoryNode `json:"children"`
}

// TypeDTO is the item type shape.
type TypeDTO struct {
	ID               uuid.UUID `json:"id"`
	Key              string    `json:"key"`
	Name             string    `json:"name"`
	Consumable       bool      `json:"consumable"`
	RequiresCheckout bool      `json:"requires_checkout"`
	CreatedAt        time.Time `json:"created_at"`
}

// CategoryInput carries create/update fields for a category.
type CategoryInput struct {
	Name        string
	ParentID    *uuid.UUID
	Description *string
	Color       *string
	Icon        *string
}

// TypeInput carries create fields for an item type.
type TypeInput struct {
	Key              string
	Name             string
	Consumable       bool
	RequiresCheckout bool
}

// Service exposes catalog operations.
type Service interface {
	CreateCategory(ctx context.Context, orgID, actorID uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, orgID, actorID, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	GetCategory(ctx context.Context, orgID, categoryID uuid.UUID) (*CategoryDTO, error)
	ListCategories(ctx context.Context, orgID uuid.UUID) ([]CategoryDTO, error)
	CategoryTree(ctx context.Context, orgID uuid.UUID) ([]CategoryNode, error)
	DeleteCategory(ctx context.Context, orgID, actorID, categoryID uuid.UUID) error

	CreateType(ctx context.Context, actorID uuid.UUID, input TypeInput) (*TypeDTO, error)
	ListTypes(ctx context.Context) ([]TypeDTO, error)

	CategoryExists(ctx context.Context, orgID, categoryID uuid.UUID) (bool, error)
	DescendantIDs(ctx context.Context, orgID, categoryID uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	repo  *Repository
	items ItemCounter
	sink  *audit.Sink
	logg  *logger.Logger
}

// NewService wires the catalog service.
func NewService(repo *Repository, items ItemCounter, sink *audit.Sink, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if items == nil {
		return nil, fmt.Errorf("item counter is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, items: items, sink: sink, logg: logg}, nil
}

func (s *service) CreateCategory(ctx context.Context, orgID, actorID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	if input.ParentID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, orgID, *input.ParentID); err != nil {
			if isNotFound(err) {
				return nil, errors.New(errors.CodeInvalidParent, "parent category does not exist")
			}
			return nil, errors.Wrap(errors.CodeDependency, err, "checking parent category")
		}
	}

	category := &models.InventoryCategory{
		OrgID:       orgID,
		Name:        name,
		ParentID:    input.ParentID,
		Description: input.Description,
		Color:       input.Color,
		Icon:        input.Icon,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "creating category")
	}

	s.audit(ctx, "inventory.category.created", orgID, actorID, category.ID)
	return toCategoryDTO(category), nil
}

func (s *service) UpdateCategory(ctx context.Context, orgID, actorID, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryByID(ctx, orgID, categoryID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "category not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "loading category")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	if input.ParentID != nil {
		if err := s.validateParent(ctx, orgID, categoryID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category.Name = name
	category.ParentID = input.ParentID
	category.Description = input.Description
	category.Color = input.Color
	category.Icon = input.Icon

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "updating category")
	}

	s.audit(ctx, "inventory.category.updated", orgID, actorID, categoryID)

	updated, err := s.repo.FindCategoryByID(ctx, orgID, categoryID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "reloading category")
	}
	return toCategoryDTO(updated), nil
}

// validateParent rejects re-parenting that would break the tree: the parent
// must exist in the same organization, must not be the category itself, and
// must not sit anywhere in the category's own subtree.
func (s *service) validateParent(ctx context.Context, orgID, categoryID, parentID uuid.UUID) error {
	if parentID == categoryID {
		return errors.New(errors.CodeInvalidParent, "category cannot be its own parent")
	}

	all, err := s.repo.ListCategories(ctx, orgID)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "loading categories")
	}
	byID := make(map[uuid.UUID]*models.InventoryCategory, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	if _, ok := byID[parentID]; !ok {
		return errors.New(errors.CodeInvalidParent, "parent category does not exist")
	}

	// Walk up from the proposed parent; hitting the category means the
	// parent lives inside its subtree.
	cursor := parentID
	for steps := 0; steps <= len(all); steps++ {
		node, ok := byID[cursor]
		if !ok || node.ParentID == nil {
			return nil
		}
		if *node.ParentID == categoryID {
			return errors.New(errors.CodeInvalidParent, "parent is a descendant of the category")
		}
		cursor = *node.ParentID
	}
	return errors.New(errors.CodeInvalidParent, "category tree is cyclic")
}

func (s *service) GetCategory(ctx context.Context, orgID, categoryID uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryByID(ctx, orgID, categoryID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "category not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "loading category")
	}
	return toCategoryDTO(category), nil
}

func (s *service) ListCategories(ctx context.Context, orgID uuid.UUID) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toCategoryDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CategoryTree(ctx context.Context, orgID uuid.UUID) ([]CategoryNode, error) {
	rows, err := s.repo.ListCategories(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing categories")
	}

	children := make(map[uuid.UUID][]*models.InventoryCategory)
	var roots []*models.InventoryCategory
	for i := range rows {
		row := &rows[i]
		if row.ParentID == nil {
			roots = append(roots, row)
			continue
		}
		children[*row.ParentID] = append(children[*row.ParentID], row)
	}

	var build func(node *models.InventoryCategory) CategoryNode
	build = func(node *models.InventoryCategory) CategoryNode {
		out := CategoryNode{CategoryDTO: *toCategoryDTO(node), Children: []CategoryNode{}}
		for _, child := range children[node.ID] {
			out.Children = append(out.Children, build(child))
		}
		return out
	}

	tree := make([]CategoryNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, build(root))
	}
	return tree, nil
}

func (s *service) DeleteCategory(ctx context.Context, orgID, actorID, categoryID uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, orgID, categoryID); err != nil {
		if isNotFound(err) {
			return errors.New(errors.CodeNotFound, "category not found")
		}
		return errors.Wrap(errors.CodeDependency, err, "loading category")
	}

	childCount, err := s.repo.CountChildren(ctx, orgID, categoryID)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "counting child categories")
	}
	itemCount, err := s.items.CountByCategory(ctx, orgID, categoryID)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "counting items")
	}
	if childCount > 0 || itemCount > 0 {
		return errors.New(errors.CodeCategoryHasItems, "category still has items or child categories").
			WithDetails(map[string]any{"items": itemCount, "children": childCount})
	}

	if err := s.repo.DeleteCategory(ctx, orgID, categoryID); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "deleting category")
	}

	s.audit(ctx, "inventory.category.deleted", orgID, actorID, categoryID)
	return nil
}

func (s *service) CreateType(ctx context.Context, actorID uuid.UUID, input TypeInput) (*TypeDTO, error) {
	key := strings.ToLower(strings.TrimSpace(input.Key))
	name := strings.TrimSpace(input.Name)
	if key == "" {
		return nil, errors.New(errors.CodeValidation, "key is required")
	}
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}

	row := &models.InventoryType{
		Key:              key,
		Name:             name,
		Consumable:       input.Consumable,
		RequiresCheckout: input.RequiresCheckout,
	}
	if err := s.repo.CreateType(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.New(errors.CodeConflict, "type key already exists").
				WithDetails(map[string]any{"key": key})
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "creating type")
	}

	s.audit(ctx, "inventory.type.created", uuid.Nil, actorID, row.ID)
	return toTypeDTO(row), nil
}

func (s *service) ListTypes(ctx context.Context) ([]TypeDTO, error) {
	rows, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing types")
	}
	out := make([]TypeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toTypeDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CategoryExists(ctx context.Context, orgID, categoryID uuid.UUID) (bool, error) {
	_, err := s.repo.FindCategoryByID(ctx, orgID, categoryID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DescendantIDs expands a category to its whole subtree, the category itself
// included. An unknown category yields an empty slice.
func (s *service) DescendantIDs(ctx context.Context, orgID, categoryID uuid.UUID) ([]uuid.UUID, error) {
	all, err := s.repo.ListCategories(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "loading categories")
	}

	children := make(map[uuid.UUID][]uuid.UUID, len(all))
	known := make(map[uuid.UUID]bool, len(all))
	for i := range all {
		known[all[i].ID] = true
		if all[i].ParentID != nil {
			children[*all[i].ParentID] = append(children[*all[i].ParentID], all[i].ID)
		}
	}
	if !known[categoryID] {
		return nil, nil
	}

	out := []uuid.UUID{}
	queue := []uuid.UUID{categoryID}
	seen := map[uuid.UUID]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue, children[id]...)
	}
	return out, nil
}

func (s *service) audit(ctx context.Context, action string, orgID, actorID, entityID uuid.UUID) {
	s.sink.Record(ctx, audit.Event{
		Action:   action,
		OrgID:    orgID,
		ActorID:  actorID,
		EntityID: entityID,
	})
}

func toCategoryDTO(category *models.InventoryCategory) *CategoryDTO {
	return &CategoryDTO{
		ID:          category.ID,
		OrgID:       category.OrgID,
		Name:        category.Name,
		ParentID:    category.ParentID,
		Description: category.Description,
		Color:       category.Color,
		Icon:        category.Icon,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

func toTypeDTO(row *models.InventoryType) *TypeDTO {
	return &TypeDTO{
		ID:               row.ID,
		Key:              row.Key,
		Name:             row.Name,
		Consumable:       row.Consumable,
		RequiresCheckout: row.RequiresCheckout,
		CreatedAt:        row.CreatedAt,
	}
}

func isNotFound(err error) bool {
	return stdErrors.Is(err, gorm.ErrRecordNotFound)
}
