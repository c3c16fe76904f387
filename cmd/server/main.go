// Package main is the entry point for the tillpoint API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tillpoint/internal/core/security"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/domain/audit"
	"tillpoint/internal/domain/cart"
	"tillpoint/internal/domain/heldorder"
	"tillpoint/internal/domain/inventory"
	"tillpoint/internal/domain/refund"
	"tillpoint/internal/domain/sale"
	"tillpoint/internal/domain/shift"
	"tillpoint/internal/infrastructure/cache"
	v1 "tillpoint/internal/infrastructure/http/v1"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/pkg/logger"
	"tillpoint/pkg/numerator"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting tillpoint server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txm := postgres.NewTxManager(pool)

	// --- Tenant registry and policy gate ---
	registry := tenant.NewPostgresRegistry(pool.Pool)

	gate, err := security.NewGate()
	if err != nil {
		log.Fatalw("failed to initialize policy gate", "error", err)
	}

	validator := security.NewTokenValidator(cfg.JWTSecret)

	// --- Live cart store ---
	var cartStore cart.Store
	if cfg.Redis.Addr != "" {
		redisStore := cache.NewRedisCartStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisStore.Ping(ctx); err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer redisStore.Close()
		cartStore = redisStore
		log.Infow("cart store: redis", "addr", cfg.Redis.Addr)
	} else {
		cartStore = cache.NewMemoryCartStore()
		log.Info("cart store: in-memory")
	}

	// --- Repositories ---
	productRepo := postgres.NewProductRepo(txm)
	inventoryRepo := postgres.NewInventoryRepo(txm)
	saleRepo := postgres.NewSaleRepo(txm)
	shiftRepo := postgres.NewShiftRepo(txm)
	refundRepo := postgres.NewRefundRepo(txm)
	heldOrderRepo := postgres.NewHeldOrderRepo(txm)
	auditRepo, err := postgres.NewAuditRepo(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	// --- Services ---
	numbers := numerator.New(pool)
	auditSvc := audit.NewService(auditRepo)
	ledger := inventory.NewLedger(inventoryRepo, productRepo)
	cartSvc := cart.NewService(cartStore, productRepo)
	shiftSvc := shift.NewService(txm, shiftRepo, auditSvc)
	saleSvc := sale.NewService(txm, saleRepo, cartSvc, shiftRepo, ledger, auditSvc, numbers)
	refundSvc := refund.NewService(txm, refundRepo, saleRepo, ledger, auditSvc)
	heldOrderSvc := heldorder.NewService(txm, heldOrderRepo, cartSvc, auditSvc)

	// --- Idempotency ---
	var idempotencyStore *postgres.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotencyStore = postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL)
	}

	// --- Router and HTTP server ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		Registry:         registry,
		Gate:             gate,
		JWTValidator:     validator,
		IdempotencyStore: idempotencyStore,
		Shifts:           shiftSvc,
		Carts:            cartSvc,
		Sales:            saleSvc,
		Refunds:          refundSvc,
		HeldOrders:       heldOrderSvc,
		Audit:            auditSvc,
		Ledger:           ledger,
		Products:         productRepo,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Background maintenance ---
	maintCtx, stopMaint := context.WithCancel(ctx)
	defer stopMaint()
	if idempotencyStore != nil {
		go sweepIdempotencyKeys(maintCtx, idempotencyStore, cfg.Idempotency.CleanupInterval)
	}
	go logPoolStats(maintCtx, pool)

	go func() {
		log.Infow("server starting", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopMaint()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// sweepIdempotencyKeys periodically removes expired idempotency keys.
func sweepIdempotencyKeys(ctx context.Context, store *postgres.IdempotencyStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info(ctx, "idempotency keys cleaned", "deleted", deleted)
			}
		}
	}
}

// logPoolStats periodically logs database pool statistics.
func logPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			postgres.LogPoolStats(ctx, pool)
		}
	}
}
