package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hauntworks/hauntworks-backend/api/controllers"
	"github.com/hauntworks/hauntworks-backend/api/middleware"
	catalogsvc "github.com/hauntworks/hauntworks-backend/internal/catalog"
	checkoutsvc "github.com/hauntworks/hauntworks-backend/internal/checkout"
	inventorysvc "github.com/hauntworks/hauntworks-backend/internal/inventory"
	reportsvc "github.com/hauntworks/hauntworks-backend/internal/reports"
	transactionsvc "github.com/hauntworks/hauntworks-backend/internal/transactions"
	"github.com/hauntworks/hauntworks-backend/pkg/config"
	"github.com/hauntworks/hauntworks-backend/pkg/db"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
	"github.com/hauntworks/hauntworks-backend/pkg/metrics"
)

// Services bundles everything the router wires into controllers.
type Services struct {
	Catalog      catalogsvc.Service
	Inventory    inventorysvc.Service
	Checkout     checkoutsvc.Service
	Transactions transactionsvc.Service
	Reports      reportsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	registry *prometheus.Registry,
	reqMetrics *metrics.RequestMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(reqMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		write := middleware.RequireInventoryWrite(logg)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(svcs.Catalog, logg))
			r.Get("/tree", controllers.CategoryTree(svcs.Catalog, logg))
			r.Get("/{id}", controllers.GetCategory(svcs.Catalog, logg))
			r.With(write).Post("/", controllers.CreateCategory(svcs.Catalog, logg))
			r.With(write).Patch("/{id}", controllers.UpdateCategory(svcs.Catalog, logg))
			r.With(write).Delete("/{id}", controllers.DeleteCategory(svcs.Catalog, logg))
		})

		r.Route("/types", func(r chi.Router) {
			r.Get("/", controllers.ListTypes(svcs.Catalog, logg))
			r.With(write).Post("/", controllers.CreateType(svcs.Catalog, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(svcs.Inventory, logg))
			r.Get("/low-stock", controllers.LowStockItems(svcs.Inventory, logg))
			r.Get("/{id}", controllers.GetItem(svcs.Inventory, logg))
			r.With(write).Post("/", controllers.CreateItem(svcs.Inventory, logg))
			r.With(write).Patch("/{id}", controllers.UpdateItem(svcs.Inventory, logg))
			r.With(write).Post("/{id}/adjust", controllers.AdjustItem(svcs.Inventory, logg))
		})

		r.Route("/checkouts", func(r chi.Router) {
			r.Get("/", controllers.ListCheckouts(svcs.Checkout, logg))
			r.Get("/overdue", controllers.OverdueCheckouts(svcs.Checkout, logg))
			r.Get("/{id}", controllers.GetCheckout(svcs.Checkout, logg))
			r.With(write).Post("/", controllers.CreateCheckout(svcs.Checkout, logg))
			r.With(write).Post("/{id}/return", controllers.ReturnCheckout(svcs.Checkout, logg))
		})

		r.Get("/transactions", controllers.ListTransactions(svcs.Transactions, logg))
		r.Get("/summary", controllers.InventorySummary(svcs.Reports, logg))
	})

	return r
}
