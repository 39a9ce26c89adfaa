package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"buckety-go/internal/config"
	"buckety-go/internal/db"
	activitydomain "buckety-go/internal/domain/activity"
	autodepositdomain "buckety-go/internal/domain/autodeposit"
	bucketdomain "buckety-go/internal/domain/bucket"
	mainbalancedomain "buckety-go/internal/domain/mainbalance"
	notificationdomain "buckety-go/internal/domain/notification"
	preferencesdomain "buckety-go/internal/domain/preferences"
	reconciledomain "buckety-go/internal/domain/reconcile"
	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/localstore"
	"buckety-go/internal/outbox"
	activityrepo "buckety-go/internal/repository/postgres/activity"
	autodepositrepo "buckety-go/internal/repository/postgres/autodeposit"
	bucketrepo "buckety-go/internal/repository/postgres/bucket"
	mainbalancerepo "buckety-go/internal/repository/postgres/mainbalance"
	notificationrepo "buckety-go/internal/repository/postgres/notification"
	preferencesrepo "buckety-go/internal/repository/postgres/preferences"
	syncrepo "buckety-go/internal/repository/postgres/sync"
	"buckety-go/internal/storage"
	"buckety-go/internal/transport/httpserver"
	"buckety-go/internal/transport/httpserver/handler"
	"buckety-go/internal/transport/httpserver/handler/autodeposits"
	"buckety-go/internal/transport/httpserver/handler/buckets"
	"buckety-go/internal/transport/httpserver/handler/common"
	"buckety-go/internal/transport/httpserver/handler/notifications"
	"buckety-go/pkg/logger"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	localDB    *sqlx.DB
	worker     *outbox.Worker
	log        logger.Logger
	wg         sync.WaitGroup
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn); err != nil {
		closeGorm(dbConn)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("app: initializing local cache", "driver", cfg.LocalStore.Driver)
	store, journal, localDB, err := newLocalStore(cfg.LocalStore, log)
	if err != nil {
		closeGorm(dbConn)
		return nil, err
	}

	log.Info("app: initializing router")
	router, worker := NewHandler(cfg, dbConn, store, journal, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
		localDB:    localDB,
		worker:     worker,
		log:        log,
	}, nil
}

// NewHandler wires the domain services, the storage façade and the outbox
// worker behind the HTTP router. The caller runs the worker.
func NewHandler(cfg config.Config, dbConn *gorm.DB, store localstore.Store, journal outbox.Journal, log logger.Logger) (http.Handler, *outbox.Worker) {
	activities := activitydomain.NewService(activityrepo.NewPostgres(dbConn))
	bucketService := bucketdomain.NewService(bucketrepo.NewPostgres(dbConn), activities, log.Named("buckets"))
	mainBalances := mainbalancedomain.NewService(mainbalancerepo.NewPostgres(dbConn))
	schedules := autodepositdomain.NewService(autodepositrepo.NewPostgres(dbConn))
	notificationService := notificationdomain.NewService(notificationrepo.NewPostgres(dbConn))
	preferencesService := preferencesdomain.NewService(preferencesrepo.NewPostgres(dbConn))
	syncService := syncdomain.NewService(syncrepo.NewPostgres(dbConn), bucketService, mainBalances, activities, schedules)

	worker := outbox.NewWorker(journal, storage.NewSyncApplier(syncService), outbox.Options{
		PollInterval:   cfg.Outbox.PollInterval,
		MaxAttempts:    cfg.Outbox.MaxAttempts,
		RetryBaseDelay: cfg.Outbox.RetryBaseDelay,
	}, log)

	cache := localstore.NewRepository(store, log)
	facade := storage.NewFacade(cache, worker, bucketService, mainBalances, activities, schedules, storage.Options{
		MainBalanceSeed:          cfg.Balances.MainBalanceSeed,
		AutoDepositCreateTimeout: cfg.Balances.AutoDepositCreateTimeout,
		BucketCreateRetries:      cfg.Balances.BucketCreateRetries,
		BucketCreateRetryDelay:   cfg.Balances.BucketCreateRetryDelay,
	}, log)

	reconciler := reconciledomain.NewService(activities, mainBalances, facade, cfg.Balances.MainBalanceSeed, cfg.Balances.ReconcileTolerance, log)
	executor := autodepositdomain.NewExecutor(schedules, facade, notificationService, log)

	handlers := handler.New(
		common.New(syncService, preferencesService, cache, log),
		buckets.New(facade, worker, activities, reconciler, log),
		autodeposits.New(facade, schedules, executor, log),
		notifications.New(notificationService, log),
	)

	return httpserver.NewRouter(cfg, handlers, preferencesService, log), worker
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// Start runs the outbox worker until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.worker.Run(ctx)
	}()
}

// Close waits for the worker to stop, then releases both databases.
func (a *App) Close() error {
	a.wg.Wait()

	var firstErr error
	if a.localDB != nil {
		if err := a.localDB.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db == nil {
		return firstErr
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		return firstErr
	}
	if err := sqlDB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func newLocalStore(cfg config.LocalStoreConfig, log logger.Logger) (localstore.Store, outbox.Journal, *sqlx.DB, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn("app: local cache is in memory, queued writes are lost on restart")
		return localstore.NewMemoryStore(), outbox.NewMemoryJournal(), nil, nil
	case "sqlite", "":
		conn, err := db.NewSQLite(cfg.Path, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return localstore.NewSQLiteStore(conn), outbox.NewSQLiteJournal(conn), conn, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown LOCAL_STORE_DRIVER %q", cfg.Driver)
	}
}

func closeGorm(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
