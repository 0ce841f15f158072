package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	"github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
	"github.com/hauntworks/hauntworks-backend/pkg/pagination"
)

// TransactionDTO is one immutable log row.
type TransactionDTO struct {
	ID               uuid.UUID             `json:"id"`
	OrgID            uuid.UUID             `json:"org_id"`
	ItemID           uuid.UUID             `json:"item_id"`
	Type             enums.TransactionType `json:"type"`
	Delta            int                   `json:"delta"`
	PreviousQuantity int                   `json:"previous_quantity"`
	NewQuantity      int                   `json:"new_quantity"`
	Reason           *string               `json:"reason,omitempty"`
	ActorID          uuid.UUID             `json:"actor_id"`
	CreatedAt        time.Time             `json:"created_at"`
}

// ListInput filters and pages the transaction log.
type ListInput struct {
	OrgID      uuid.UUID
	ItemID     *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// ListPage is one page of log rows.
type ListPage struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}

// Service exposes read access to the transaction log.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListPage, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService wires the transaction log service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListPage, error) {
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return nil, errors.New(errors.CodeValidation, "time range end precedes start")
	}

	result, err := s.repo.List(ctx, listQuery{
		OrgID:      input.OrgID,
		ItemID:     input.ItemID,
		From:       input.From,
		To:         input.To,
		Pagination: input.Pagination,
	})
	if err != nil {
		if strings.Contains(err.Error(), "cursor") {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "listing transactions")
	}

	page := &ListPage{
		Transactions: make([]TransactionDTO, 0, len(result.Transactions)),
		NextCursor:   result.NextCursor,
	}
	for i := range result.Transactions {
		page.Transactions = append(page.Transactions, toTransactionDTO(&result.Transactions[i]))
	}
	return page, nil
}

func toTransactionDTO(row *models.InventoryTransaction) TransactionDTO {
	return TransactionDTO{
		ID:               row.ID,
		OrgID:            row.OrgID,
		ItemID:           row.ItemID,
		Type:             row.Type,
		Delta:            row.Delta,
		PreviousQuantity: row.PreviousQuantity,
		NewQuantity:      row.NewQuantity,
		Reason:           row.Reason,
		ActorID:          row.ActorID,
		CreatedAt:        row.CreatedAt,
	}
}
