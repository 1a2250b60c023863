package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"birthpad-backend/internal/application/contributions"
	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/application/launches"
	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/application/portfolio"
	"birthpad-backend/internal/application/settlement"
	"birthpad-backend/internal/application/transactions"
	"birthpad-backend/internal/application/vesting"
	"birthpad-backend/internal/config"
	"birthpad-backend/internal/infrastructure/cache"
	"birthpad-backend/internal/infrastructure/database"
	"birthpad-backend/internal/interfaces/router"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/pkg/keylock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// NonceTTL bounds how long a consumed nonce is remembered in Redis.
const NonceTTL = 30 * 24 * time.Hour

// App is the composition root: infrastructure handles, services and the Fiber app.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Rdb      *redis.Client
	Bus      settlement.Bus
	Store    *ledger.Store
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Applier  *settlement.Applier
	Launches *launches.Service
	Fiber    *fiber.App

	cancel context.CancelFunc
	done   chan struct{}
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// New opens the ledger, Redis and the settlement bus named by cfg and wires every service.
// Postgres is used when DATABASE_URL is set, embedded SQLite otherwise.
func New(cfg *config.Config) (*App, error) {
	db, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opt)
	}

	var bus settlement.Bus
	if cfg.NATSURL != "" {
		if bus, err = settlement.NewNATSBus(cfg.NATSURL); err != nil {
			return nil, err
		}
	} else {
		bus = settlement.NewMemoryBus()
	}

	return Wire(cfg, db, rdb, bus), nil
}

func openLedger(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	}
	db, err := database.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
	}
	return db, nil
}

// Wire builds services over already opened handles. rdb may be nil.
func Wire(cfg *config.Config, db *gorm.DB, rdb *redis.Client, bus settlement.Bus) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	store := ledger.New(db)
	locks := &keylock.Locker{}
	resolver := identity.NewResolver(store, identity.ParseAdminWallets(cfg.AdminWallets))

	var nonces identity.NonceStore = &identity.LedgerNonceStore{DB: db}
	if rdb != nil {
		nonces = &identity.RedisNonceStore{Client: rdb, TTL: NonceTTL}
	}
	verifier := identity.NewVerifier(cfg.WalletAuthSecret, nonces, resolver)

	launchSvc := launches.NewService(store, resolver, bus, locks, cache.NewRedis(rdb), m)
	processor := contributions.NewProcessor(store, resolver, bus, locks, m)
	processor.Invalidate = launchSvc.Invalidate
	applier := settlement.NewApplier(store, locks, m)
	applier.OnApplied = launchSvc.Invalidate

	services := router.Services{
		Verifier:     verifier,
		Launches:     launchSvc,
		Processor:    processor,
		Vesting:      vesting.NewCalculator(store, resolver, locks, m),
		Transactions: &transactions.Service{Store: store},
		Portfolio:    portfolio.NewService(store),
		Bus:          bus,
		Metrics:      m,
		Registry:     registry,
		Rdb:          rdb,
		DB:           &gormDBPinger{db: db},
	}
	if mb, ok := bus.(*settlement.MemoryBus); ok {
		services.Backlog = mb
	}

	return &App{
		Config:   cfg,
		DB:       db,
		Rdb:      rdb,
		Bus:      bus,
		Store:    store,
		Registry: registry,
		Metrics:  m,
		Applier:  applier,
		Launches: launchSvc,
		Fiber:    router.CreateApp(cfg, services),
	}
}

// Start runs the settlement applier in the background until Close.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		if err := a.Applier.Run(ctx, a.Bus); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("settlement applier exited")
		}
	}()
}

// Settle applies every queued in-process event synchronously. It is a no-op for
// external buses.
func (a *App) Settle(ctx context.Context) (int, error) {
	mb, ok := a.Bus.(*settlement.MemoryBus)
	if !ok {
		return 0, nil
	}
	return mb.Drain(ctx, a.Applier.Apply)
}

// Handler returns the app as a net/http handler.
func (a *App) Handler() http.Handler {
	return adaptor.FiberApp(a.Fiber)
}

// Close stops the applier, then releases the bus, Redis and the ledger. The
// in-process bus is drained before the applier stops.
func (a *App) Close() error {
	var errs []error
	_, inProcess := a.Bus.(*settlement.MemoryBus)
	if inProcess {
		if err := a.Bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cancel != nil {
		if inProcess {
			select {
			case <-a.done:
			case <-time.After(10 * time.Second):
				log.Warn().Msg("settlement applier did not drain in time")
			}
		}
		a.cancel()
		<-a.done
	}
	if !inProcess {
		if err := a.Bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Rdb != nil {
		if err := a.Rdb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
