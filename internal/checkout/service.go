package checkout

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/internal/inventory"
	"github.com/hauntworks/hauntworks-backend/pkg/audit"
	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	"github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
	"github.com/hauntworks/hauntworks-backend/pkg/pagination"
)

// Ledger is the slice of the item ledger the engine needs: the atomic
// adjust primitive, callable inside the engine's own transaction.
type Ledger interface {
	ApplyAdjustment(ctx context.Context, tx *gorm.DB, params inventory.AdjustmentParams) (*models.InventoryTransaction, error)
}

// CheckoutDTO is the checkout shape returned to controllers.
type CheckoutDTO struct {
	ID           uuid.UUID            `json:"id"`
	OrgID        uuid.UUID            `json:"org_id"`
	ItemID       uuid.UUID            `json:"item_id"`
	StaffID      uuid.UUID            `json:"staff_id"`
	Quantity     int                  `json:"quantity"`
	ConditionOut enums.ItemCondition  `json:"condition_out"`
	CheckedOutAt time.Time            `json:"checked_out_at"`
	DueDate      *time.Time           `json:"due_date,omitempty"`
	ReturnedAt   *time.Time           `json:"returned_at,omitempty"`
	ConditionIn  *enums.ItemCondition `json:"condition_in,omitempty"`
	Notes        *string              `json:"notes,omitempty"`
	Active       bool                 `json:"active"`
}

func toCheckoutDTO(row *models.InventoryCheckout) *CheckoutDTO {
	return &CheckoutDTO{
		ID:           row.ID,
		OrgID:        row.OrgID,
		ItemID:       row.ItemID,
		StaffID:      row.StaffID,
		Quantity:     row.Quantity,
		ConditionOut: row.ConditionOut,
		CheckedOutAt: row.CheckedOutAt,
		DueDate:      row.DueDate,
		ReturnedAt:   row.ReturnedAt,
		ConditionIn:  row.ConditionIn,
		Notes:        row.Notes,
		Active:       row.Active(),
	}
}

// CreateInput carries the fields for a new checkout.
type CreateInput struct {
	ItemID       uuid.UUID
	StaffID      uuid.UUID
	Quantity     int
	ConditionOut enums.ItemCondition
	DueDate      *time.Time
	Notes        *string
}

// ReturnInput carries the fields for closing a checkout.
type ReturnInput struct {
	ConditionIn *enums.ItemCondition
	Notes       *string
}

// ListInput filters and pages the checkout list.
type ListInput struct {
	OrgID      uuid.UUID
	StaffID    *uuid.UUID
	ActiveOnly bool
	Pagination pagination.Params
}

// ListPage is one page of checkout DTOs.
type ListPage struct {
	Checkouts  []CheckoutDTO `json:"checkouts"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Service exposes the checkout lifecycle.
type Service interface {
	Create(ctx context.Context, orgID, actorID uuid.UUID, input CreateInput) (*CheckoutDTO, error)
	Return(ctx context.Context, orgID, actorID, checkoutID uuid.UUID, input ReturnInput) (*CheckoutDTO, error)
	Get(ctx context.Context, orgID, checkoutID uuid.UUID) (*CheckoutDTO, error)
	List(ctx context.Context, input ListInput) (*ListPage, error)
	Overdue(ctx context.Context, orgID uuid.UUID) ([]CheckoutDTO, error)
}

type service struct {
	repo   *Repository
	ledger Ledger
	tx     inventory.TxRunner
	sink   *audit.Sink
	logg   *logger.Logger
}

// NewService wires the checkout engine.
func NewService(repo *Repository, ledger Ledger, tx inventory.TxRunner, sink *audit.Sink, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, ledger: ledger, tx: tx, sink: sink, logg: logg}, nil
}

// Create reserves quantity for a staff member. The ledger debit and the
// checkout row commit or roll back together, so stock can never be
// over-allocated and a failed checkout leaves nothing behind.
func (s *service) Create(ctx context.Context, orgID, actorID uuid.UUID, input CreateInput) (*CheckoutDTO, error) {
	if input.Quantity <= 0 {
		return nil, errors.New(errors.CodeValidation, "quantity must be positive")
	}
	if input.ItemID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "item_id is required")
	}
	if input.StaffID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "staff_id is required")
	}
	if !input.ConditionOut.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid condition_out")
	}

	row := &models.InventoryCheckout{
		OrgID:        orgID,
		ItemID:       input.ItemID,
		StaffID:      input.StaffID,
		Quantity:     input.Quantity,
		ConditionOut: input.ConditionOut,
		DueDate:      input.DueDate,
		Notes:        input.Notes,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.ledger.ApplyAdjustment(ctx, tx, inventory.AdjustmentParams{
			OrgID:   orgID,
			ItemID:  input.ItemID,
			ActorID: actorID,
			Delta:   -input.Quantity,
			Type:    enums.TransactionTypeCheckout,
		})
		if err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "creating checkout")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "inventory.checkout.created", orgID, actorID, row.ID)
	return toCheckoutDTO(row), nil
}

// Return closes the checkout and credits the quantity back, both inside one
// transaction. The conditional close guarantees the credit happens at most
// once per checkout no matter how many return requests race.
func (s *service) Return(ctx context.Context, orgID, actorID, checkoutID uuid.UUID, input ReturnInput) (*CheckoutDTO, error) {
	if input.ConditionIn != nil && !input.ConditionIn.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid condition_in")
	}

	var row *models.InventoryCheckout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByID(ctx, orgID, checkoutID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "checkout not found")
			}
			return errors.Wrap(errors.CodeDependency, err, "loading checkout")
		}

		affected, err := repo.MarkReturned(ctx, orgID, checkoutID, time.Now().UTC(), input.ConditionIn, input.Notes)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "closing checkout")
		}
		if affected == 0 {
			return errors.New(errors.CodeAlreadyReturned, "checkout already returned").
				WithDetails(map[string]any{"returned_at": existing.ReturnedAt})
		}

		_, err = s.ledger.ApplyAdjustment(ctx, tx, inventory.AdjustmentParams{
			OrgID:   orgID,
			ItemID:  existing.ItemID,
			ActorID: actorID,
			Delta:   existing.Quantity,
			Type:    enums.TransactionTypeReturn,
		})
		if err != nil {
			return err
		}

		row, err = repo.FindByID(ctx, orgID, checkoutID)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "reloading checkout")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "inventory.checkout.returned", orgID, actorID, checkoutID)
	return toCheckoutDTO(row), nil
}

func (s *service) Get(ctx context.Context, orgID, checkoutID uuid.UUID) (*CheckoutDTO, error) {
	row, err := s.repo.FindByID(ctx, orgID, checkoutID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "checkout not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "loading checkout")
	}
	return toCheckoutDTO(row), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListPage, error) {
	result, err := s.repo.List(ctx, listQuery{
		OrgID:      input.OrgID,
		StaffID:    input.StaffID,
		ActiveOnly: input.ActiveOnly,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing checkouts")
	}

	page := &ListPage{
		Checkouts:  make([]CheckoutDTO, 0, len(result.Checkouts)),
		NextCursor: result.NextCursor,
	}
	for i := range result.Checkouts {
		page.Checkouts = append(page.Checkouts, *toCheckoutDTO(&result.Checkouts[i]))
	}
	return page, nil
}

func (s *service) Overdue(ctx context.Context, orgID uuid.UUID) ([]CheckoutDTO, error) {
	rows, err := s.repo.ListOverdue(ctx, orgID, time.Now().UTC())
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing overdue checkouts")
	}
	out := make([]CheckoutDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toCheckoutDTO(&rows[i]))
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
