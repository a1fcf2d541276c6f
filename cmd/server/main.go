package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	auditapp "github.com/logistics/backend/internal/application/audit"
	catalogapp "github.com/logistics/backend/internal/application/catalog"
	distributionapp "github.com/logistics/backend/internal/application/distribution"
	financeapp "github.com/logistics/backend/internal/application/finance"
	partnerapp "github.com/logistics/backend/internal/application/partner"
	tradeapp "github.com/logistics/backend/internal/application/trade"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/service"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/auth"
	"github.com/logistics/backend/internal/infrastructure/config"
	"github.com/logistics/backend/internal/infrastructure/event"
	"github.com/logistics/backend/internal/infrastructure/lock"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/infrastructure/migration"
	"github.com/logistics/backend/internal/infrastructure/persistence"
	"github.com/logistics/backend/internal/infrastructure/store"
	"github.com/logistics/backend/internal/infrastructure/telemetry"
	"github.com/logistics/backend/internal/interfaces/http/handler"
	"github.com/logistics/backend/internal/interfaces/http/middleware"
	"github.com/logistics/backend/internal/interfaces/http/router"
	"github.com/logistics/backend/migrations"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// backend is the opened storage with its health check and cleanup
type backend struct {
	store   store.CollectionStore
	redis   redis.UniversalClient
	checks  map[string]handler.HealthCheck
	closers []func() error
}

func (b *backend) Close(log *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Error("Error closing backend", zap.Error(err))
		}
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting allocation ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Backend),
		zap.String("lock", cfg.Lock.Backend),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	// Storage
	storage, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer storage.Close(log)

	var locker shared.Locker = lock.NewMemoryLocker()
	if cfg.Lock.Backend == "redis" {
		rdb := storage.redis
		if rdb == nil {
			rdb = newRedisClient(cfg)
			storage.closers = append(storage.closers, rdb.Close)
		}
		locker = lock.NewRedisLocker(rdb, lock.RedisConfig{
			Prefix:     cfg.Redis.KeyPrefix,
			TTL:        cfg.Lock.TTL,
			RetryCount: cfg.Lock.RetryCount,
			RetryDelay: cfg.Lock.RetryDelay,
		}, log)
	}

	// Repositories
	orderRepo := persistence.NewOrderRepository(storage.store)
	allocationRepo := persistence.NewAllocationRepository(storage.store)
	paymentRepo := persistence.NewPaymentRepository(storage.store)
	itemRepo := persistence.NewItemRepository(storage.store)
	supplierRepo := persistence.NewSupplierRepository(storage.store)
	auditRepo := persistence.NewAuditRepository(storage.store)

	existingNumbers, err := orderRepo.OrderNumbers(ctx)
	if err != nil {
		log.Fatal("Failed to read order numbers", zap.Error(err))
	}
	sequence := trade.NewOrderNumberSequence(cfg.Ledger.OrderNumberPrefix, existingNumbers)
	converter := service.NewUnitConversionService(cfg.Ledger.DefaultContainerTonnage)

	// Application services
	orderService := tradeapp.NewOrderService(orderRepo, allocationRepo, itemRepo, converter, sequence, locker, log)
	allocationService := distributionapp.NewAllocationService(orderRepo, allocationRepo, paymentRepo, supplierRepo, converter, locker, log)
	settlementService := financeapp.NewSettlementService(orderRepo, allocationRepo, paymentRepo, locker, log)
	supplierService := partnerapp.NewSupplierService(supplierRepo)
	itemService := catalogapp.NewItemService(itemRepo)
	auditQueryService := auditapp.NewQueryService(auditRepo)

	// Event bus: audit trail and ledger metrics are plain subscribers
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(auditapp.NewRecorder(auditRepo))
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	eventBus.Subscribe(ledgerMetrics)

	orderService.SetEventPublisher(eventBus)
	allocationService.SetEventPublisher(eventBus)
	settlementService.SetEventPublisher(eventBus)

	// HTTP
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
	engine.Use(middleware.Actor(middleware.ActorConfig{
		JWTService:       auth.NewJWTService(cfg.JWT),
		AllowHeaderActor: cfg.JWT.AllowHeaderActor,
		SkipPaths:        []string{"/api/v1/health"},
		Logger:           log,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(httpMetrics.Middleware())

	systemHandler := handler.NewSystemHandler(cfg.App.Name, serviceVersion)
	for name, check := range storage.checks {
		systemHandler.AddCheck(name, check)
	}

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.LedgerGroups(router.Handlers{
			System:       systemHandler,
			Orders:       handler.NewOrderHandler(orderService),
			Distribution: handler.NewDistributionHandler(allocationService),
			Settlement:   handler.NewSettlementHandler(settlementService),
			Suppliers:    handler.NewSupplierHandler(supplierService),
			Items:        handler.NewItemHandler(itemService),
			Audit:        handler.NewAuditHandler(auditQueryService),
		})...).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// openBackend opens the configured collection store. The sql backend is
// migrated to the latest schema before use.
func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{checks: make(map[string]handler.HealthCheck)}

	switch cfg.Store.Backend {
	case "sql":
		db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)

		if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
			LogFullSQL: cfg.Telemetry.LogFullSQL,
			DBSystem:   cfg.Database.Driver,
		}, log).RegisterOtelGorm(db.DB); err != nil {
			b.Close(log)
			return nil, err
		}

		sqlDB, err := db.DB.DB()
		if err != nil {
			b.Close(log)
			return nil, err
		}
		migrator, err := migration.New(sqlDB, cfg.Database.Driver, migrations.FS, log)
		if err != nil {
			b.Close(log)
			return nil, err
		}
		if err := migrator.Up(); err != nil {
			b.Close(log)
			return nil, err
		}
		// the sqlite driver closes the shared *sql.DB on Close, postgres only its own conn
		if cfg.Database.Driver == "postgres" {
			if err := migrator.Close(); err != nil {
				log.Warn("Error closing migrator", zap.Error(err))
			}
		}

		b.store = store.NewSQLStore(db.DB)
		b.checks["database"] = func(context.Context) error { return db.Ping() }
		log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	case "redis":
		rdb := newRedisClient(cfg)
		b.closers = append(b.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			b.Close(log)
			return nil, err
		}
		b.redis = rdb
		b.store = store.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
		b.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))

	default:
		b.store = store.NewMemoryStore()
		log.Warn("Using in-memory store, data is lost on restart")
	}

	return b, nil
}

func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
