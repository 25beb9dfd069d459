package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"fleetflow/internal/app"
	"fleetflow/internal/auth"
	"fleetflow/internal/config"
	"fleetflow/internal/events"
	"fleetflow/internal/handler"
	internalRedis "fleetflow/internal/redis"
	"fleetflow/internal/repository"
	"fleetflow/internal/repository/memory"
	"fleetflow/internal/repository/postgres"
	"fleetflow/internal/service"
)

// infra holds the optional external clients. Nil fields are disabled.
type infra struct {
	db    *sql.DB
	redis *redis.Client
	mqtt  mqtt.Client
	nrApp *newrelic.Application
}

func main() {
	cfg := config.Load()
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	deps, err := connect(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	defer deps.close()

	server, err := wireServer(deps, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("wiring failed")
	}

	go func() {
		logger.WithFields(log.Fields{
			"port":  cfg.Server.Port,
			"store": cfg.Store.Backend,
		}).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	if deps.nrApp != nil {
		deps.nrApp.Shutdown(cfg.Server.ShutdownTimeout)
	}

	logger.Info("server exited")
}

// connect opens every enabled external dependency. New Relic comes first so
// the database and Redis clients can be instrumented.
func connect(ctx context.Context, cfg *config.Config, logger *log.Logger) (*infra, error) {
	deps := &infra{}

	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err := newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize New Relic")
		} else {
			deps.nrApp = nrApp
			logger.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := app.NewDatabase(ctx, cfg.Database, deps.nrApp)
		if err != nil {
			return nil, err
		}
		deps.db = db
		logger.Info("connected to PostgreSQL")

		if cfg.Database.Migrate {
			if err := app.Migrate(ctx, db, logger); err != nil {
				deps.close()
				return nil, err
			}
		}
	case config.StoreBackendMemory:
		logger.Warn("using in-memory store; data is lost on exit")
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	if cfg.Redis.Enabled {
		client, err := app.NewRedisClient(ctx, cfg.Redis, deps.nrApp)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.redis = client
		logger.Info("connected to Redis")
	}

	if cfg.MQTT.Enabled {
		client, err := app.NewMQTTClient(cfg.MQTT, logger)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.mqtt = client
	}

	return deps, nil
}

func (d *infra) close() {
	if d.mqtt != nil {
		d.mqtt.Disconnect(250)
	}
	if d.redis != nil {
		d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(deps *infra, cfg *config.Config, logger *log.Logger) (*http.Server, error) {
	var store repository.Store
	if deps.db != nil {
		store = postgres.NewStore(deps.db)
	} else {
		store = memory.NewStore()
	}

	// Interfaces stay nil when Redis is disabled; the services skip locks and caching.
	var (
		locks internalRedis.LockStoreInterface
		cache internalRedis.CacheStoreInterface
	)
	if deps.redis != nil {
		locks = internalRedis.NewLockStore(deps.redis)
		cache = internalRedis.NewCacheStore(deps.redis, cfg.Analytics.CacheTTL)
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if deps.mqtt != nil {
		publisher = events.NewMQTTPublisher(deps.mqtt, cfg.MQTT.TopicPrefix)
	}

	var tokens *auth.Service
	if cfg.Auth.Enabled {
		var err error
		tokens, err = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
	} else {
		logger.Warn("authentication disabled; every request acts as manager")
	}

	// Initialize services.
	registry := service.NewRegistryService(store, cache, logger)
	trips := service.NewTripService(store, locks, cfg.Redis.ClaimLockTTL, publisher, cache, logger)
	maintenance := service.NewMaintenanceService(store, cache, logger)
	fuel := service.NewFuelService(store, cache, logger)
	analytics := service.NewAnalyticsService(store, cache, logger)

	router := app.NewRouter(app.RouterDeps{
		VehicleHandler:     handler.NewVehicleHandler(registry),
		DriverHandler:      handler.NewDriverHandler(registry),
		TripHandler:        handler.NewTripHandler(trips),
		MaintenanceHandler: handler.NewMaintenanceHandler(maintenance),
		FuelHandler:        handler.NewFuelHandler(fuel),
		AnalyticsHandler:   handler.NewAnalyticsHandler(analytics),
		Tokens:             tokens,
		RedisClient:        deps.redis,
		NewRelicApp:        deps.nrApp,
		Logger:             logger,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
