package inventory

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/audit"
	"github.com/hauntworks/hauntworks-backend/pkg/db"
	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	"github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
	"github.com/hauntworks/hauntworks-backend/pkg/pagination"
)

// TxRunner executes fn inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CategoryResolver is the slice of the catalog service the ledger needs:
// validating category references and expanding a category filter to its
// subtree.
type CategoryResolver interface {
	CategoryExists(ctx context.Context, orgID, categoryID uuid.UUID) (bool, error)
	DescendantIDs(ctx context.Context, orgID, categoryID uuid.UUID) ([]uuid.UUID, error)
}

// CreateItemInput carries the fields for a new item.
type CreateItemInput struct {
	SKU          string
	Name         string
	TypeID       uuid.UUID
	CategoryID   *uuid.UUID
	AttractionID *uuid.UUID
	Quantity     int
	MinQuantity  int
	MaxQuantity  *int
	Unit         string
	UnitCost     *decimal.Decimal
	Location     *string
	Condition    enums.ItemCondition
	Notes        *string
}

// UpdateItemInput carries metadata changes for an existing item. Quantity is
// deliberately absent; it only moves through AdjustQuantity.
type UpdateItemInput struct {
	SKU          string
	Name         string
	CategoryID   *uuid.UUID
	AttractionID *uuid.UUID
	MinQuantity  int
	MaxQuantity  *int
	Unit         string
	UnitCost     *decimal.Decimal
	Location     *string
	Condition    enums.ItemCondition
	Notes        *string
}

// ListItemsInput filters and pages the item list.
type ListItemsInput struct {
	OrgID      uuid.UUID
	CategoryID *uuid.UUID
	Search     string
	Pagination pagination.Params
}

// AdjustInput is one manual quantity adjustment request.
type AdjustInput struct {
	Delta  int
	Reason enums.TransactionType
	Note   *string
}

// AdjustmentParams is the internal contract for writing one ledger movement.
// The checkout engine calls ApplyAdjustment with these inside its own
// transaction.
type AdjustmentParams struct {
	OrgID   uuid.UUID
	ItemID  uuid.UUID
	ActorID uuid.UUID
	Delta   int
	Type    enums.TransactionType
	Reason  *string
}

// Service exposes the item ledger operations.
type Service interface {
	CreateItem(ctx context.Context, orgID, actorID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, orgID, itemID uuid.UUID) (*ItemDTO, error)
	UpdateItem(ctx context.Context, orgID, actorID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	ListItems(ctx context.Context, input ListItemsInput) (*ItemListPage, error)
	LowStock(ctx context.Context, orgID uuid.UUID) ([]ItemDTO, error)
	AdjustQuantity(ctx context.Context, orgID, actorID, itemID uuid.UUID, input AdjustInput) (*AdjustmentDTO, error)
	ApplyAdjustment(ctx context.Context, tx *gorm.DB, params AdjustmentParams) (*models.InventoryTransaction, error)
}

type service struct {
	repo    *Repository
	tx      TxRunner
	catalog CategoryResolver
	sink    *audit.Sink
	logg    *logger.Logger
}

// NewService wires the ledger service.
func NewService(repo *Repository, tx TxRunner, catalog CategoryResolver, sink *audit.Sink, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog resolver is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog, sink: sink, logg: logg}, nil
}

func (s *service) CreateItem(ctx context.Context, orgID, actorID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	if err := s.validateCreate(ctx, orgID, input); err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		OrgID:        orgID,
		SKU:          strings.TrimSpace(input.SKU),
		Name:         strings.TrimSpace(input.Name),
		TypeID:       input.TypeID,
		CategoryID:   input.CategoryID,
		AttractionID: input.AttractionID,
		Quantity:     input.Quantity,
		MinQuantity:  input.MinQuantity,
		MaxQuantity:  input.MaxQuantity,
		Unit:         normalizeUnit(input.Unit),
		UnitCost:     input.UnitCost,
		Location:     input.Location,
		Condition:    normalizeCondition(input.Condition),
		Notes:        input.Notes,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errors.New(errors.CodeConflict, "sku already in use").
					WithDetails(map[string]any{"sku": item.SKU})
			}
			return errors.Wrap(errors.CodeDependency, err, "creating item")
		}
		if item.Quantity > 0 {
			row := &models.InventoryTransaction{
				OrgID:            orgID,
				ItemID:           item.ID,
				Type:             enums.TransactionTypePurchase,
				Delta:            item.Quantity,
				PreviousQuantity: 0,
				NewQuantity:      item.Quantity,
				ActorID:          actorID,
			}
			if err := repo.CreateTransaction(ctx, row); err != nil {
				return errors.Wrap(errors.CodeDependency, err, "writing initial stock transaction")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "inventory.item.created", orgID, actorID, item.ID, map[string]any{
		"sku":      item.SKU,
		"quantity": item.Quantity,
	})

	created, err := s.repo.FindByID(ctx, orgID, item.ID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "reloading created item")
	}
	return toItemDTO(created), nil
}

func (s *service) GetItem(ctx context.Context, orgID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, orgID, itemID)
	if err != nil {
		if stdIsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "item not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "loading item")
	}
	return toItemDTO(item), nil
}

func (s *service) UpdateItem(ctx context.Context, orgID, actorID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	existing, err := s.repo.FindByID(ctx, orgID, itemID)
	if err != nil {
		if stdIsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "item not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "loading item")
	}

	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, orgID, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := validateThresholds(input.MinQuantity, input.MaxQuantity); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return nil, errors.New(errors.CodeValidation, "sku is required")
	}

	existing.SKU = strings.TrimSpace(input.SKU)
	existing.Name = strings.TrimSpace(input.Name)
	existing.CategoryID = input.CategoryID
	existing.AttractionID = input.AttractionID
	existing.MinQuantity = input.MinQuantity
	existing.MaxQuantity = input.MaxQuantity
	existing.Unit = normalizeUnit(input.Unit)
	existing.UnitCost = input.UnitCost
	existing.Location = input.Location
	existing.Condition = normalizeCondition(input.Condition)
	existing.Notes = input.Notes

	updated, err := s.repo.UpdateItem(ctx, existing)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.New(errors.CodeConflict, "sku already in use").
				WithDetails(map[string]any{"sku": existing.SKU})
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "updating item")
	}

	s.recordAudit(ctx, "inventory.item.updated", orgID, actorID, itemID, map[string]any{"sku": updated.SKU})
	return toItemDTO(updated), nil
}

func (s *service) ListItems(ctx context.Context, input ListItemsInput) (*ItemListPage, error) {
	query := itemListQuery{
		OrgID:      input.OrgID,
		Search:     input.Search,
		Pagination: input.Pagination,
	}

	if input.CategoryID != nil {
		ids, err := s.catalog.DescendantIDs(ctx, input.OrgID, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, errors.New(errors.CodeNotFound, "category not found")
		}
		query.CategoryIDs = ids
	}

	result, err := s.repo.ListItems(ctx, query)
	if err != nil {
		if isCursorError(err) {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "listing items")
	}

	page := &ItemListPage{
		Items:      make([]ItemDTO, 0, len(result.Items)),
		NextCursor: result.NextCursor,
	}
	for i := range result.Items {
		page.Items = append(page.Items, *toItemDTO(&result.Items[i]))
	}
	return page, nil
}

func (s *service) LowStock(ctx context.Context, orgID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.repo.ListLowStock(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing low stock items")
	}
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toItemDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) AdjustQuantity(ctx context.Context, orgID, actorID, itemID uuid.UUID, input AdjustInput) (*AdjustmentDTO, error) {
	if input.Delta == 0 {
		return nil, errors.New(errors.CodeValidation, "delta must be non-zero")
	}
	if !input.Reason.IsAdjustmentReason() {
		return nil, errors.New(errors.CodeValidation, "invalid adjustment reason").
			WithDetails(map[string]any{"reason": string(input.Reason)})
	}

	var row *models.InventoryTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		row, err = s.ApplyAdjustment(ctx, tx, AdjustmentParams{
			OrgID:   orgID,
			ItemID:  itemID,
			ActorID: actorID,
			Delta:   input.Delta,
			Type:    input.Reason,
			Reason:  input.Note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "inventory.item.adjusted", orgID, actorID, itemID, map[string]any{
		"delta":        row.Delta,
		"reason":       string(row.Type),
		"new_quantity": row.NewQuantity,
	})
	return toAdjustmentDTO(row), nil
}

// ApplyAdjustment writes one atomic ledger movement inside the caller's
// transaction: conditionally bump the item quantity, then append the matching
// log row with before/after snapshots. Zero rows affected on the update means
// either the item is missing or the delta would underflow; the follow-up read
// inside the same transaction tells the two apart.
func (s *service) ApplyAdjustment(ctx context.Context, tx *gorm.DB, params AdjustmentParams) (*models.InventoryTransaction, error) {
	if params.Delta == 0 {
		return nil, errors.New(errors.CodeValidation, "delta must be non-zero")
	}
	if !params.Type.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid transaction type")
	}

	repo := s.repo.WithTx(tx)

	affected, err := repo.ApplyDelta(ctx, params.OrgID, params.ItemID, params.Delta)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "applying quantity delta")
	}

	if affected == 0 {
		quantity, exists, err := repo.QuantityByID(ctx, params.OrgID, params.ItemID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "checking item quantity")
		}
		if !exists {
			return nil, errors.New(errors.CodeNotFound, "item not found")
		}
		return nil, errors.New(errors.CodeInsufficientQuantity, "adjustment would drive quantity below zero").
			WithDetails(map[string]any{"quantity": quantity, "delta": params.Delta})
	}

	newQuantity, _, err := repo.QuantityByID(ctx, params.OrgID, params.ItemID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "reading updated quantity")
	}

	row := &models.InventoryTransaction{
		OrgID:            params.OrgID,
		ItemID:           params.ItemID,
		Type:             params.Type,
		Delta:            params.Delta,
		PreviousQuantity: newQuantity - params.Delta,
		NewQuantity:      newQuantity,
		Reason:           params.Reason,
		ActorID:          params.ActorID,
	}
	if err := repo.CreateTransaction(ctx, row); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "writing transaction log row")
	}
	return row, nil
}

func (s *service) validateCreate(ctx context.Context, orgID uuid.UUID, input CreateItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New(errors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return errors.New(errors.CodeValidation, "sku is required")
	}
	if input.TypeID == uuid.Nil {
		return errors.New(errors.CodeValidation, "type_id is required")
	}
	if input.Quantity < 0 {
		return errors.New(errors.CodeValidation, "quantity must not be negative")
	}
	if err := validateThresholds(input.MinQuantity, input.MaxQuantity); err != nil {
		return err
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, orgID, *input.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) ensureCategory(ctx context.Context, orgID, categoryID uuid.UUID) error {
	exists, err := s.catalog.CategoryExists(ctx, orgID, categoryID)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "checking category")
	}
	if !exists {
		return errors.New(errors.CodeValidation, "category does not exist").
			WithDetails(map[string]any{"category_id": categoryID.String()})
	}
	return nil
}

func (s *service) recordAudit(ctx context.Context, action string, orgID, actorID, entityID uuid.UUID, payload map[string]any) {
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}
	s.sink.Record(ctx, audit.Event{
		Action:   action,
		OrgID:    orgID,
		ActorID:  actorID,
		EntityID: entityID,
		Payload:  raw,
	})
}

func validateThresholds(minQuantity int, maxQuantity *int) error {
	if minQuantity < 0 {
		return errors.New(errors.CodeValidation, "min_quantity must not be negative")
	}
	if maxQuantity != nil && *maxQuantity < minQuantity {
		return errors.New(errors.CodeValidation, "max_quantity must be at least min_quantity")
	}
	return nil
}

func normalizeUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "each"
	}
	return unit
}

func normalizeCondition(condition enums.ItemCondition) enums.ItemCondition {
	if !condition.IsValid() {
		return enums.ItemConditionGood
	}
	return condition
}

func stdIsNotFound(err error) bool {
	return stdErrors.Is(err, gorm.ErrRecordNotFound)
}

func isCursorError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "cursor")
}
