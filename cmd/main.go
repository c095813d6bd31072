package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/farm-maintenance/internal/auth"
	"github.com/ukydev/farm-maintenance/internal/cache"
	"github.com/ukydev/farm-maintenance/internal/config"
	"github.com/ukydev/farm-maintenance/internal/db"
	"github.com/ukydev/farm-maintenance/internal/handlers"
	"github.com/ukydev/farm-maintenance/internal/ingest"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
	"github.com/ukydev/farm-maintenance/internal/middleware"
	"github.com/ukydev/farm-maintenance/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
)

// loadEngine builds the engine from the configured catalog file, or from the
// compiled-in catalog when none is set.
func loadEngine(path string) (*maintenance.Engine, error) {
	if path == "" {
		return maintenance.New(maintenance.DefaultCatalog()), nil
	}
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return maintenance.New(catalog), nil
}

func newStores(database *mongo.Database) service.Stores {
	return service.Stores{
		Machines:        &db.MongoMachineCollection{Collection: database.Collection(db.MachinesCollection)},
		Plans:           &db.MongoPlanCollection{Collection: database.Collection(db.PlansCollection)},
		MaintenanceLogs: &db.MongoMaintenanceLogCollection{Collection: database.Collection(db.MaintenanceLogsCollection)},
		WorkLogs:        &db.MongoWorkLogCollection{Collection: database.Collection(db.WorkLogsCollection)},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	engine, err := loadEngine(cfg.CatalogFile)
	if err != nil {
		return err
	}

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	log.Info("Connected to MongoDB successfully")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return err
	}

	opts := []service.Option{service.WithWindowDays(cfg.WorkLogWindowDays)}
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, assessment cache disabled")
		} else {
			defer rdb.Close()
			opts = append(opts, service.WithCache(cache.NewAssessmentCache(rdb, cfg.CacheTTL)))
			log.WithField("ttl", cfg.CacheTTL).Info("Assessment cache enabled")
		}
	}

	svc := service.NewHealthService(engine, newStores(database), opts...)

	if cfg.CatalogFile != "" {
		go func() {
			err := config.WatchCatalog(ctx, cfg.CatalogFile, func(c maintenance.Catalog) {
				svc.SwapEngine(ctx, maintenance.New(c))
			})
			if err != nil {
				log.WithError(err).Error("Catalog watcher stopped")
			}
		}()
	}

	if cfg.MQTTBroker != "" {
		mc, err := ingest.Connect(cfg.MQTTBroker, cfg.MQTTClientID, ingest.NewIngestor(svc, cfg.MQTTTopicPrefix))
		if err != nil {
			log.WithError(err).Warn("MQTT ingest disabled")
		} else {
			defer func(c mqtt.Client) { c.Disconnect(250) }(mc)
		}
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimitMiddleware()
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.RateLimitWindow) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep(cfg.RateLimitWindow)
			}
		}
	}()

	router := handlers.NewRouter(
		handlers.NewMachineHandler(svc),
		middleware.NewAuthMiddleware(authService),
		limiter,
		handlers.RateLimit{Max: cfg.RateLimitMax, WindowSeconds: cfg.RateLimitWindow},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}
