package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hauntworks/hauntworks-backend/pkg/audit"
	"github.com/hauntworks/hauntworks-backend/pkg/config"
	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.InventoryType{}, &models.InventoryCategory{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type stubItemCounter struct {
	counts map[uuid.UUID]int64
}

func (s *stubItemCounter) CountByCategory(_ context.Context, _, categoryID uuid.UUID) (int64, error) {
	return s.counts[categoryID], nil
}

func newTestService(t *testing.T, conn *gorm.DB, items *stubItemCounter) Service {
	t.Helper()
	if items == nil {
		items = &stubItemCounter{}
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	sink := audit.NewSink(nil, config.AuditConfig{}, logg)
	svc, err := NewService(NewRepository(conn), items, sink, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
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

func mustCreate(t *testing.T, svc Service, orgID uuid.UUID, name string, parentID *uuid.UUID) *CategoryDTO {
	t.Helper()
	dto, err := svc.CreateCategory(context.Background(), orgID, uuid.New(), CategoryInput{Name: name, ParentID: parentID})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return dto
}

func TestCreateCategoryParentValidation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	orgID := uuid.New()

	missing := uuid.New()
	_, err := svc.CreateCategory(context.Background(), orgID, uuid.New(), CategoryInput{Name: "Props", ParentID: &missing})
	assertCode(t, err, pkgerrors.CodeInvalidParent)

	// A parent belonging to another organization is invisible.
	otherOrg := mustCreate(t, svc, uuid.New(), "Foreign", nil)
	_, err = svc.CreateCategory(context.Background(), orgID, uuid.New(), CategoryInput{Name: "Props", ParentID: &otherOrg.ID})
	assertCode(t, err, pkgerrors.CodeInvalidParent)

	root := mustCreate(t, svc, orgID, "Props", nil)
	child := mustCreate(t, svc, orgID, "Animatronics", &root.ID)
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Fatalf("parent not persisted: %+v", child)
	}
}

func TestUpdateCategoryRejectsCycles(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	orgID := uuid.New()

	root := mustCreate(t, svc, orgID, "Props", nil)
	child := mustCreate(t, svc, orgID, "Animatronics", &root.ID)
	grandchild := mustCreate(t, svc, orgID, "Pneumatics", &child.ID)

	_, err := svc.UpdateCategory(context.Background(), orgID, uuid.New(), root.ID, CategoryInput{Name: "Props", ParentID: &root.ID})
	assertCode(t, err, pkgerrors.CodeInvalidParent)

	_, err = svc.UpdateCategory(context.Background(), orgID, uuid.New(), root.ID, CategoryInput{Name: "Props", ParentID: &grandchild.ID})
	assertCode(t, err, pkgerrors.CodeInvalidParent)

	// Reparenting the grandchild straight under the root is fine.
	dto, err := svc.UpdateCategory(context.Background(), orgID, uuid.New(), grandchild.ID, CategoryInput{Name: "Pneumatics", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("valid reparent: %v", err)
	}
	if dto.ParentID == nil || *dto.ParentID != root.ID {
		t.Fatalf("reparent not persisted: %+v", dto)
	}
}

func TestDeleteCategoryProtection(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	orgID := uuid.New()
	ctx := context.Background()

	items := &stubItemCounter{counts: map[uuid.UUID]int64{}}
	svc := newTestService(t, conn, items)

	root := mustCreate(t, svc, orgID, "Props", nil)
	child := mustCreate(t, svc, orgID, "Animatronics", &root.ID)

	err := svc.DeleteCategory(ctx, orgID, uuid.New(), root.ID)
	assertCode(t, err, pkgerrors.CodeCategoryHasItems)

	withItems := mustCreate(t, svc, orgID, "Costumes", nil)
	items.counts[withItems.ID] = 3
	err = svc.DeleteCategory(ctx, orgID, uuid.New(), withItems.ID)
	assertCode(t, err, pkgerrors.CodeCategoryHasItems)

	if err := svc.DeleteCategory(ctx, orgID, uuid.New(), child.ID); err != nil {
		t.Fatalf("delete leaf: %v", err)
	}
	if err := svc.DeleteCategory(ctx, orgID, uuid.New(), root.ID); err != nil {
		t.Fatalf("delete emptied root: %v", err)
	}
	_, err = svc.GetCategory(ctx, orgID, root.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetCategoryCrossTenant(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)

	category := mustCreate(t, svc, uuid.New(), "Props", nil)
	_, err := svc.GetCategory(context.Background(), uuid.New(), category.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCategoryTree(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	orgID := uuid.New()

	root := mustCreate(t, svc, orgID, "Props", nil)
	child := mustCreate(t, svc, orgID, "Animatronics", &root.ID)
	mustCreate(t, svc, orgID, "Pneumatics", &child.ID)
	mustCreate(t, svc, orgID, "Costumes", nil)

	tree, err := svc.CategoryTree(context.Background(), orgID)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	byName := map[string]CategoryNode{}
	for _, node := range tree {
		byName[node.Name] = node
	}
	props := byName["Props"]
	if len(props.Children) != 1 || props.Children[0].Name != "Animatronics" {
		t.Fatalf("unexpected Props subtree: %+v", props)
	}
	if len(props.Children[0].Children) != 1 || props.Children[0].Children[0].Name != "Pneumatics" {
		t.Fatalf("unexpected Animatronics subtree: %+v", props.Children[0])
	}
	if len(byName["Costumes"].Children) != 0 {
		t.Fatalf("Costumes should be a leaf: %+v", byName["Costumes"])
	}
}

func TestDescendantIDs(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	orgID := uuid.New()
	ctx := context.Background()

	root := mustCreate(t, svc, orgID, "Props", nil)
	child := mustCreate(t, svc, orgID, "Animatronics", &root.ID)
	grandchild := mustCreate(t, svc, orgID, "Pneumatics", &child.ID)
	mustCreate(t, svc, orgID, "Costumes", nil)

	ids, err := svc.DescendantIDs(ctx, orgID, root.ID)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	want := map[uuid.UUID]bool{root.ID: true, child.ID: true, grandchild.ID: true}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected id %s in subtree", id)
		}
	}

	ids, err = svc.DescendantIDs(ctx, orgID, uuid.New())
	if err != nil {
		t.Fatalf("unknown category: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("unknown category should have no descendants, got %d", len(ids))
	}
}

func TestCreateTypeDuplicateKey(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	first, err := svc.CreateType(ctx, uuid.New(), TypeInput{Key: "Fog-Machine", Name: "Fog Machine", RequiresCheckout: true})
	if err != nil {
		t.Fatalf("create type: %v", err)
	}
	if first.Key != "fog-machine" {
		t.Fatalf("key should normalize to lowercase, got %q", first.Key)
	}

	_, err = svc.CreateType(ctx, uuid.New(), TypeInput{Key: "fog-machine", Name: "Duplicate"})
	assertCode(t, err, pkgerrors.CodeConflict)

	rows, err := svc.ListTypes(ctx)
	if err != nil {
		t.Fatalf("list types: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 type, got %d", len(rows))
	}
}
