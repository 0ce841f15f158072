package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hauntworks/hauntworks-backend/api/routes"
	"github.com/hauntworks/hauntworks-backend/internal/catalog"
	"github.com/hauntworks/hauntworks-backend/internal/checkout"
	"github.com/hauntworks/hauntworks-backend/internal/inventory"
	"github.com/hauntworks/hauntworks-backend/internal/reports"
	"github.com/hauntworks/hauntworks-backend/internal/transactions"
	"github.com/hauntworks/hauntworks-backend/pkg/audit"
	"github.com/hauntworks/hauntworks-backend/pkg/config"
	"github.com/hauntworks/hauntworks-backend/pkg/db"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
	"github.com/hauntworks/hauntworks-backend/pkg/metrics"
	"github.com/hauntworks/hauntworks-backend/pkg/migrate"
	"github.com/hauntworks/hauntworks-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reqMetrics := metrics.NewRequestMetrics(registry)

	auditSink := audit.NewSink(redisClient, cfg.Audit, logg)

	gdb := dbClient.DB()
	inventoryRepo := inventory.NewRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	checkoutRepo := checkout.NewRepository(gdb)
	transactionsRepo := transactions.NewRepository(gdb)
	reportsRepo := reports.NewRepository(gdb)

	catalogService, err := catalog.NewService(catalogRepo, inventoryRepo, auditSink, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventoryRepo, dbClient, catalogService, auditSink, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkoutRepo, inventoryService, dbClient, auditSink, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(transactionsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reportsRepo, checkoutRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, reqMetrics, routes.Services{
			Catalog:      catalogService,
			Inventory:    inventoryService,
			Checkout:     checkoutService,
			Transactions: transactionsService,
			Reports:      reportsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
