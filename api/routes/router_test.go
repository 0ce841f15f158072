package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	catalogsvc "github.com/hauntworks/hauntworks-backend/internal/catalog"
	checkoutsvc "github.com/hauntworks/hauntworks-backend/internal/checkout"
	inventorysvc "github.com/hauntworks/hauntworks-backend/internal/inventory"
	reportsvc "github.com/hauntworks/hauntworks-backend/internal/reports"
	transactionsvc "github.com/hauntworks/hauntworks-backend/internal/transactions"
	pkgAuth "github.com/hauntworks/hauntworks-backend/pkg/auth"
	"github.com/hauntworks/hauntworks-backend/pkg/config"
	"github.com/hauntworks/hauntworks-backend/pkg/db/models"
	"github.com/hauntworks/hauntworks-backend/pkg/enums"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
	"github.com/hauntworks/hauntworks-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) CreateCategory(ctx context.Context, orgID, actorID uuid.UUID, input catalogsvc.CategoryInput) (*catalogsvc.CategoryDTO, error) {
	return &catalogsvc.CategoryDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (stubCatalogService) UpdateCategory(ctx context.Context, orgID, actorID, categoryID uuid.UUID, input catalogsvc.CategoryInput) (*catalogsvc.CategoryDTO, error) {
	return &catalogsvc.CategoryDTO{ID: categoryID, Name: input.Name}, nil
}

func (stubCatalogService) GetCategory(ctx context.Context, orgID, categoryID uuid.UUID) (*catalogsvc.CategoryDTO, error) {
	return &catalogsvc.CategoryDTO{ID: categoryID}, nil
}

func (stubCatalogService) ListCategories(ctx context.Context, orgID uuid.UUID) ([]catalogsvc.CategoryDTO, error) {
	return []catalogsvc.CategoryDTO{}, nil
}

func (stubCatalogService) CategoryTree(ctx context.Context, orgID uuid.UUID) ([]catalogsvc.CategoryNode, error) {
	return []catalogsvc.CategoryNode{}, nil
}

func (stubCatalogService) DeleteCategory(ctx context.Context, orgID, actorID, categoryID uuid.UUID) error {
	return nil
}

func (stubCatalogService) CreateType(ctx context.Context, actorID uuid.UUID, input catalogsvc.TypeInput) (*catalogsvc.TypeDTO, error) {
	return &catalogsvc.TypeDTO{ID: uuid.New(), Key: input.Key, Name: input.Name}, nil
}

func (stubCatalogService) ListTypes(ctx context.Context) ([]catalogsvc.TypeDTO, error) {
	return []catalogsvc.TypeDTO{}, nil
}

func (stubCatalogService) CategoryExists(ctx context.Context, orgID, categoryID uuid.UUID) (bool, error) {
	return true, nil
}

func (stubCatalogService) DescendantIDs(ctx context.Context, orgID, categoryID uuid.UUID) ([]uuid.UUID, error) {
	return []uuid.UUID{categoryID}, nil
}

type stubInventoryService struct{}

func (stubInventoryService) CreateItem(ctx context.Context, orgID, actorID uuid.UUID, input inventorysvc.CreateItemInput) (*inventorysvc.ItemDTO, error) {
	return &inventorysvc.ItemDTO{ID: uuid.New(), SKU: input.SKU, Name: input.Name}, nil
}

func (stubInventoryService) GetItem(ctx context.Context, orgID, itemID uuid.UUID) (*inventorysvc.ItemDTO, error) {
	return &inventorysvc.ItemDTO{ID: itemID}, nil
}

func (stubInventoryService) UpdateItem(ctx context.Context, orgID, actorID, itemID uuid.UUID, input inventorysvc.UpdateItemInput) (*inventorysvc.ItemDTO, error) {
	return &inventorysvc.ItemDTO{ID: itemID, SKU: input.SKU, Name: input.Name}, nil
}

func (stubInventoryService) ListItems(ctx context.Context, input inventorysvc.ListItemsInput) (*inventorysvc.ItemListPage, error) {
	return &inventorysvc.ItemListPage{Items: []inventorysvc.ItemDTO{}}, nil
}

func (stubInventoryService) LowStock(ctx context.Context, orgID uuid.UUID) ([]inventorysvc.ItemDTO, error) {
	return []inventorysvc.ItemDTO{}, nil
}

func (stubInventoryService) AdjustQuantity(ctx context.Context, orgID, actorID, itemID uuid.UUID, input inventorysvc.AdjustInput) (*inventorysvc.AdjustmentDTO, error) {
	return &inventorysvc.AdjustmentDTO{ItemID: itemID, Delta: input.Delta}, nil
}

func (stubInventoryService) ApplyAdjustment(ctx context.Context, tx *gorm.DB, params inventorysvc.AdjustmentParams) (*models.InventoryTransaction, error) {
	return &models.InventoryTransaction{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Create(ctx context.Context, orgID, actorID uuid.UUID, input checkoutsvc.CreateInput) (*checkoutsvc.CheckoutDTO, error) {
	return &checkoutsvc.CheckoutDTO{ID: uuid.New(), ItemID: input.ItemID}, nil
}

func (stubCheckoutService) Return(ctx context.Context, orgID, actorID, checkoutID uuid.UUID, input checkoutsvc.ReturnInput) (*checkoutsvc.CheckoutDTO, error) {
	return &checkoutsvc.CheckoutDTO{ID: checkoutID}, nil
}

func (stubCheckoutService) Get(ctx context.Context, orgID, checkoutID uuid.UUID) (*checkoutsvc.CheckoutDTO, error) {
	return &checkoutsvc.CheckoutDTO{ID: checkoutID}, nil
}

func (stubCheckoutService) List(ctx context.Context, input checkoutsvc.ListInput) (*checkoutsvc.ListPage, error) {
	return &checkoutsvc.ListPage{Checkouts: []checkoutsvc.CheckoutDTO{}}, nil
}

func (stubCheckoutService) Overdue(ctx context.Context, orgID uuid.UUID) ([]checkoutsvc.CheckoutDTO, error) {
	return []checkoutsvc.CheckoutDTO{}, nil
}

type stubTransactionsService struct{}

func (stubTransactionsService) List(ctx context.Context, input transactionsvc.ListInput) (*transactionsvc.ListPage, error) {
	return &transactionsvc.ListPage{Transactions: []transactionsvc.TransactionDTO{}}, nil
}

type stubReportsService struct{}

func (stubReportsService) Summary(ctx context.Context, orgID uuid.UUID) (*reportsvc.Summary, error) {
	return &reportsvc.Summary{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret: "secret",
			Issuer: "issuer",
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reqMetrics := metrics.NewRequestMetrics(prometheus.NewRegistry())
	return NewRouter(
		cfg,
		logg,
		stubPinger{}, // db.Pinger
		stubPinger{}, // redis pinger
		nil,          // metrics registry (endpoint disabled)
		reqMetrics,
		Services{
			Catalog:      stubCatalogService{},
			Inventory:    stubInventoryService{},
			Checkout:     stubCheckoutService{},
			Transactions: stubTransactionsService{},
			Reports:      stubReportsService{},
		},
	)
}

func TestInventoryGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestInventoryGroupRejectsMissingOrgClaim(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items", nil)
	req.Header.Set("Authorization", "Bearer "+buildTokenWithoutOrg(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for org-less token got %d", resp.Code)
	}
}

func TestWriteRoutesRequireWriteRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"name":"Animatronics"}`
	viewer := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/categories", strings.NewReader(body))
	viewer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleViewer))
	viewer.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, viewer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer create got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/categories", strings.NewReader(body))
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleManager))
	manager.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for manager create got %d", resp.Code)
	}
}

func TestReadRoutesAllowViewer(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	for _, path := range []string{
		"/api/v1/inventory/items",
		"/api/v1/inventory/categories",
		"/api/v1/inventory/checkouts",
		"/api/v1/inventory/transactions",
		"/api/v1/inventory/summary",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleViewer))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for viewer GET %s got %d", path, resp.Code)
		}
	}
}

func TestAdjustRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/items/"+uuid.NewString()+"/adjust", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleOwner))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestAdjustAcceptsGoodJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"delta":-2,"reason":"damaged"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/items/"+uuid.NewString()+"/adjust", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleManager))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid adjust got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	orgID := uuid.New()
	return signToken(t, cfg, pkgAuth.AccessTokenClaims{
		UserID: uuid.New(),
		OrgID:  &orgID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			ID:        uuid.NewString(),
		},
	})
}

func buildTokenWithoutOrg(t *testing.T, cfg *config.Config) string {
	t.Helper()
	return signToken(t, cfg, pkgAuth.AccessTokenClaims{
		UserID: uuid.New(),
		Role:   enums.MemberRoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			ID:        uuid.NewString(),
		},
	})
}

func signToken(t *testing.T, cfg *config.Config, claims pkgAuth.AccessTokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
