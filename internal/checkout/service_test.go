package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/internal/inventory"
	"github.com/hauntworks/hauntworks-backend/pkg/audit"
	"github.com/hauntworks/hauntworks-backend/pkg/config"
	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
	"github.com/hauntworks/hauntworks-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.InventoryType{},
		&models.InventoryCategory{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
		&models.InventoryCheckout{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubCatalog struct{}

func (stubCatalog) CategoryExists(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func (stubCatalog) DescendantIDs(context.Context, uuid.UUID, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	sink := audit.NewSink(nil, config.AuditConfig{}, logg)
	runner := testTxRunner{db: conn}

	ledger, err := inventory.NewService(inventory.NewRepository(conn), runner, stubCatalog{}, sink, logg)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	svc, err := NewService(NewRepository(conn), ledger, runner, sink, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedItem(t *testing.T, conn *gorm.DB, orgID uuid.UUID, quantity int) *models.InventoryItem {
	t.Helper()
	typeRow := models.InventoryType{Key: "prop_" + uuid.NewString()[:8], Name: "Prop", RequiresCheckout: true}
	if err := conn.Create(&typeRow).Error; err != nil {
		t.Fatalf("seed type: %v", err)
	}
	item := models.InventoryItem{
		OrgID:     orgID,
		SKU:       "SKU-" + uuid.NewString()[:8],
		Name:      "Chainsaw Prop",
		TypeID:    typeRow.ID,
		Quantity:  quantity,
		Unit:      "each",
		Condition: enums.ItemConditionGood,
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return &item
}

func itemQuantity(t *testing.T, conn *gorm.DB, itemID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := conn.First(&item, "id = ?", itemID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return item.Quantity
}

func transactionCount(t *testing.T, conn *gorm.DB, itemID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := conn.Model(&models.InventoryTransaction{}).Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error %s, got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestCreateCheckoutDebitsStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	orgID := uuid.New()
	item := seedItem(t, conn, orgID, 5)

	dto, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{
		ItemID:       item.ID,
		StaffID:      uuid.New(),
		Quantity:     3,
		ConditionOut: enums.ItemConditionGood,
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if !dto.Active || dto.Quantity != 3 {
		t.Fatalf("unexpected checkout: %+v", dto)
	}
	if got := itemQuantity(t, conn, item.ID); got != 2 {
		t.Fatalf("expected quantity 2 after checkout, got %d", got)
	}

	var logRow models.InventoryTransaction
	if err := conn.First(&logRow, "item_id = ?", item.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if logRow.Type != enums.TransactionTypeCheckout || logRow.Delta != -3 {
		t.Fatalf("unexpected ledger row: %+v", logRow)
	}
	if logRow.PreviousQuantity != 5 || logRow.NewQuantity != 2 {
		t.Fatalf("unexpected snapshots: %+v", logRow)
	}
}

func TestCreateCheckoutNeverOverAllocates(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	orgID := uuid.New()
	item := seedItem(t, conn, orgID, 2)

	_, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{
		ItemID:       item.ID,
		StaffID:      uuid.New(),
		Quantity:     3,
		ConditionOut: enums.ItemConditionGood,
	})
	assertCode(t, err, pkgerrors.CodeInsufficientQuantity)

	if got := itemQuantity(t, conn, item.ID); got != 2 {
		t.Fatalf("failed checkout changed quantity: %d", got)
	}
	if got := transactionCount(t, conn, item.ID); got != 0 {
		t.Fatalf("failed checkout left %d transaction rows", got)
	}
	var count int64
	if err := conn.Model(&models.InventoryCheckout{}).Where("item_id = ?", item.ID).Count(&count).Error; err != nil {
		t.Fatalf("count checkouts: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed checkout left %d checkout rows", count)
	}
}

func TestCreateCheckoutValidation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	orgID := uuid.New()
	item := seedItem(t, conn, orgID, 5)

	_, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{
		ItemID:       item.ID,
		StaffID:      uuid.New(),
		Quantity:     0,
		ConditionOut: enums.ItemConditionGood,
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), orgID, uuid.New(), CreateInput{
		ItemID:       uuid.New(),
		StaffID:      uuid.New(),
		Quantity:     1,
		ConditionOut: enums.ItemConditionGood,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestReturnRoundTrip(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	orgID := uuid.New()
	actorID := uuid.New()
	item := seedItem(t, conn, orgID, 4)

	created, err := svc.Create(context.Background(), orgID, actorID, CreateInput{
		ItemID:       item.ID,
		StaffID:      uuid.New(),
		Quantity:     4,
		ConditionOut: enums.ItemConditionGood,
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if got := itemQuantity(t, conn, item.ID); got != 0 {
		t.Fatalf("expected quantity 0, got %d", got)
	}

	conditionIn := enums.ItemConditionFair
	returned, err := svc.Return(context.Background(), orgID, actorID, created.ID, ReturnInput{ConditionIn: &conditionIn})
	if err != nil {
		t.Fatalf("return checkout: %v", err)
	}
	if returned.Active || returned.ReturnedAt == nil {
		t.Fatalf("checkout should be closed: %+v", returned)
	}
	if returned.ConditionIn == nil || *returned.ConditionIn != enums.ItemConditionFair {
		t.Fatalf("condition_in not recorded: %+v", returned)
	}
	if got := itemQuantity(t, conn, item.ID); got != 4 {
		t.Fatalf("expected quantity restored to 4, got %d", got)
	}
	if got := transactionCount(t, conn, item.ID); got != 2 {
		t.Fatalf("expected checkout+return rows, got %d", got)
	}
}

func TestReturnTwiceFails(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	orgID := uuid.New()
	item := seedItem(t, conn, orgID, 2)

	created, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{
		ItemID:       item.ID,
		StaffID:      uuid.New(),
		Quantity:     2,
		ConditionOut: enums.ItemConditionGood,
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}

	if _, err := svc.Return(context.Background(), orgID, uuid.New(), created.ID, ReturnInput{}); err != nil {
		t.Fatalf("first return: %v", err)
	}

	_, err = svc.Return(context.Background(), orgID, uuid.New(), created.ID, ReturnInput{})
	assertCode(t, err, pkgerrors.CodeAlreadyReturned)

	// The double return must not credit stock twice.
	if got := itemQuantity(t, conn, item.ID); got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
	if got := transactionCount(t, conn, item.ID); got != 2 {
		t.Fatalf("expected 2 transaction rows, got %d", got)
	}
}

func TestReturnCrossTenantNotFound(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	orgID := uuid.New()
	item := seedItem(t, conn, orgID, 1)

	created, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{
		ItemID:       item.ID,
		StaffID:      uuid.New(),
		Quantity:     1,
		ConditionOut: enums.ItemConditionGood,
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}

	_, err = svc.Return(context.Background(), uuid.New(), uuid.New(), created.ID, ReturnInput{})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListActiveAndOverdue(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	orgID := uuid.New()
	staffID := uuid.New()
	item := seedItem(t, conn, orgID, 10)
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour)
	overdue, err := svc.Create(ctx, orgID, uuid.New(), CreateInput{
		ItemID:       item.ID,
		StaffID:      staffID,
		Quantity:     1,
		ConditionOut: enums.ItemConditionGood,
		DueDate:      &past,
	})
	if err != nil {
		t.Fatalf("create overdue checkout: %v", err)
	}

	closed, err := svc.Create(ctx, orgID, uuid.New(), CreateInput{
		ItemID:       item.ID,
		StaffID:      uuid.New(),
		Quantity:     2,
		ConditionOut: enums.ItemConditionGood,
	})
	if err != nil {
		t.Fatalf("create second checkout: %v", err)
	}
	if _, err := svc.Return(ctx, orgID, uuid.New(), closed.ID, ReturnInput{}); err != nil {
		t.Fatalf("return second checkout: %v", err)
	}

	active, err := svc.List(ctx, ListInput{OrgID: orgID, ActiveOnly: true, Pagination: pagination.Params{Limit: 50}})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active.Checkouts) != 1 || active.Checkouts[0].ID != overdue.ID {
		t.Fatalf("unexpected active list: %+v", active.Checkouts)
	}

	all, err := svc.List(ctx, ListInput{OrgID: orgID, Pagination: pagination.Params{Limit: 50}})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Checkouts) != 2 {
		t.Fatalf("expected 2 checkouts, got %d", len(all.Checkouts))
	}

	byStaff, err := svc.List(ctx, ListInput{OrgID: orgID, StaffID: &staffID, Pagination: pagination.Params{Limit: 50}})
	if err != nil {
		t.Fatalf("list by staff: %v", err)
	}
	if len(byStaff.Checkouts) != 1 || byStaff.Checkouts[0].StaffID != staffID {
		t.Fatalf("unexpected staff list: %+v", byStaff.Checkouts)
	}

	late, err := svc.Overdue(ctx, orgID)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(late) != 1 || late[0].ID != overdue.ID {
		t.Fatalf("unexpected overdue list: %+v", late)
	}
}
