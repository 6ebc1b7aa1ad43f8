package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	satelliteapp "github.com/vendra/backend/internal/application/satellite"
	"github.com/vendra/backend/internal/infrastructure/cache"
	"github.com/vendra/backend/internal/infrastructure/config"
	"github.com/vendra/backend/internal/infrastructure/logger"
	"github.com/vendra/backend/internal/infrastructure/persistence"
	"github.com/vendra/backend/internal/infrastructure/scheduler"
	"github.com/vendra/backend/internal/infrastructure/tenantdb"
	"github.com/vendra/backend/internal/interfaces/http/handler"
	"github.com/vendra/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting vendra backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Catalog database (shared tenant directory); also serves as the
	// primary database for the sync pipeline and the sequence counters
	catalog, err := persistence.NewDatabaseWithCustomLogger(&cfg.Catalog, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to catalog database", zap.Error(err))
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			log.Error("Error closing catalog database", zap.Error(err))
		}
	}()
	log.Info("Catalog database connected")

	// Tenant routing: catalog store behind a TTL cache, pools created
	// lazily per tenant
	catalogRepo := persistence.NewGormTenantCatalogRepository(catalog.DB)
	configCache := cache.NewTenantConfigCacheFactory(cfg.Redis, cfg.TenantDB.ConfigCacheTTL, log).CreateCache()
	resolver := tenantdb.NewResolver(catalogRepo, configCache, cfg.TenantDB.ConfigCacheTTL, log)
	manager := tenantdb.NewManager(resolver, cfg.TenantDB, gormLog, log)
	defer func() {
		if err := manager.ShutdownAll(); err != nil {
			log.Error("Error closing tenant pools", zap.Error(err))
		}
	}()

	allocator := persistence.NewGormSequenceRepository()

	// Satellite sync pipeline
	satelliteDB, err := persistence.NewDatabaseWithCustomLogger(&cfg.Sync.Satellite, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to satellite database", zap.Error(err))
	}
	defer func() {
		if err := satelliteDB.Close(); err != nil {
			log.Error("Error closing satellite database", zap.Error(err))
		}
	}()

	syncService := satelliteapp.NewSyncService(
		persistence.NewReferenceRepository(catalog.DB, satelliteDB.DB),
		persistence.NewSatellitePendingSaleRepository(satelliteDB.DB),
		persistence.NewPrimaryDocumentRepository(catalog.DB),
		allocator,
		cfg.Sync.DestinationDocType,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var syncScheduler *scheduler.SyncScheduler
	if cfg.Scheduler.Enabled {
		syncScheduler = scheduler.NewSyncScheduler(cfg.Scheduler.Interval, syncService, log)
		syncScheduler.Start(ctx)
		defer syncScheduler.Stop()
	}

	engine := router.New(log, manager, router.Handlers{
		Health:    handler.NewHealthHandler(catalog),
		Admin:     handler.NewAdminHandler(manager, syncService),
		Numbering: handler.NewNumberingHandler(allocator),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
		os.Exit(1)
	}
}
