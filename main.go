package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"chemviz/adapters/postgres"
	"chemviz/app"
	"chemviz/internal"
	"chemviz/internal/api"
	"chemviz/internal/config"
	"chemviz/internal/errors"
	"chemviz/internal/metrics"
	"chemviz/internal/migration"
)

// initDatabase connects to PostgreSQL and applies the schema
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(appConfig.Database.MaxOpenConns)
	db.SetMaxIdleConns(appConfig.Database.MaxIdleConns)

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	logger := internal.DefaultLogger

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}
	logger = internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level), os.Stderr)
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, appConfig)
	if err != nil {
		logger.WithError(err).Error("failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New()
	if err := m.Register(collectors.NewDBStatsCollector(db.DB, "chemviz")); err != nil {
		logger.WithError(err).Warn("failed to register database stats collector")
	}

	users := postgres.NewUserRepository(db)
	datasets := postgres.NewDatasetRepository(db, appConfig.Ingest.MaxDatasets)

	events := api.NewEventHub(ctx, logger)
	equipmentService := app.NewEquipmentService(datasets, users, appConfig.Ingest, logger, m).WithEventPublisher(events)
	authService := app.NewAuthService(users, logger)

	apiServer := api.NewServer(equipmentService, authService, events, appConfig.Ingest.MaxUploadBytes, logger)
	servers := []*http.Server{{
		Addr:         ":" + appConfig.Server.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
	}}
	if appConfig.Ops.Enabled {
		servers = append(servers, &http.Server{
			Addr:    ":" + appConfig.Ops.Port,
			Handler: api.NewOpsApp(db, m).Handler(),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.WithField("addr", srv.Addr).Info("listener starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrapf(err, "listener %s failed", srv.Addr)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down")
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).WithField("addr", srv.Addr).Warn("graceful shutdown failed")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
}
