package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

// Summary is the derived inventory overview. It is recomputed from items and
// active checkouts on every request; nothing here is stored.
type Summary struct {
	TotalItems      int64 `json:"total_items"`
	TotalQuantity   int64 `json:"total_quantity"`
	LowStockCount   int64 `json:"low_stock_count"`
	CheckedOutCount int64 `json:"checked_out_count"`
}

// ActiveCheckoutCounter is the slice of the checkout engine the summary needs.
type ActiveCheckoutCounter interface {
	CountActive(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// Repository runs the item aggregate queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type itemTotals struct {
	TotalItems    int64
	TotalQuantity int64
}

func (r *Repository) ItemTotals(ctx context.Context, orgID uuid.UUID) (*itemTotals, error) {
	var totals itemTotals
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Select("COUNT(*) AS total_items, COALESCE(SUM(quantity), 0) AS total_quantity").
		Where("org_id = ?", orgID).
		Scan(&totals).
		Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *Repository) LowStockCount(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("org_id = ? AND quantity <= min_quantity", orgID).
		Count(&count).
		Error
	return count, err
}

// Service exposes the summary view.
type Service interface {
	Summary(ctx context.Context, orgID uuid.UUID) (*Summary, error)
}

type service struct {
	repo      *Repository
	checkouts ActiveCheckoutCounter
	logg      *logger.Logger
}

// NewService wires the reporting service.
func NewService(repo *Repository, checkouts ActiveCheckoutCounter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if checkouts == nil {
		return nil, fmt.Errorf("checkout counter is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, checkouts: checkouts, logg: logg}, nil
}

func (s *service) Summary(ctx context.Context, orgID uuid.UUID) (*Summary, error) {
	totals, err := s.repo.ItemTotals(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "computing item totals")
	}
	lowStock, err := s.repo.LowStockCount(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "counting low stock items")
	}
	checkedOut, err := s.checkouts.CountActive(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "counting active checkouts")
	}

	return &Summary{
		TotalItems:      totals.TotalItems,
		TotalQuantity:   totals.TotalQuantity,
		LowStockCount:   lowStock,
		CheckedOutCount: checkedOut,
	}, nil
}
