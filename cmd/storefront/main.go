package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorverse/api/controllers"
	"github.com/angelmondragon/vendorverse/api/routes"
	"github.com/angelmondragon/vendorverse/internal/catalog"
	"github.com/angelmondragon/vendorverse/internal/session"
	"github.com/angelmondragon/vendorverse/internal/slot"
	"github.com/angelmondragon/vendorverse/internal/storefront"
	"github.com/angelmondragon/vendorverse/internal/users"
	"github.com/angelmondragon/vendorverse/pkg/config"
	"github.com/angelmondragon/vendorverse/pkg/db"
	"github.com/angelmondragon/vendorverse/pkg/logger"
	"github.com/angelmondragon/vendorverse/pkg/metrics"
	"github.com/angelmondragon/vendorverse/pkg/migrate"
	"github.com/angelmondragon/vendorverse/pkg/redis"
)

const (
	serviceName     = "storefront"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	readiness := map[string]controllers.Pinger{}

	var dbClient *db.Client
	if cfg.UsesDatabase() {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		closers = append(closers, dbClient)
		readiness["database"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return fmt.Errorf("dev migrations: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, cfg.Slot.Namespace, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		closers = append(closers, redisClient)
		readiness["redis"] = redisClient
	}

	backend, err := slotBackend(cfg, dbClient, redisClient)
	if err != nil {
		return err
	}

	registry, err := userRegistry(ctx, cfg, dbClient)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	manager, err := storefront.NewManager(storefront.ManagerParams{
		Slot:         backend,
		Registry:     registry,
		Catalog:      cat,
		MockPassword: cfg.Session.MockPassword,
		Logger:       logg,
		Metrics:      metrics.NewStorefrontMetrics(metricsRegistry),
		IdleTTL:      cfg.Session.ClientIdleTTL,
		MaxClients:   cfg.Session.MaxClients,
	})
	if err != nil {
		return fmt.Errorf("create storefront manager: %w", err)
	}
	readiness["slot"] = manager

	var limiter routes.RateLimiter
	if redisClient != nil {
		limiter = redisClient
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, metricsRegistry, manager, limiter, readiness),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"slot_driver":     cfg.Slot.Driver,
		"registry_driver": cfg.Session.RegistryDriver,
		"products":        len(cat.Products()),
	})
	logg.Info(logCtx, "starting storefront server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func slotBackend(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (slot.Store, error) {
	switch strings.ToLower(cfg.Slot.Driver) {
	case config.SlotDriverRedis:
		return slot.NewRedis(redisClient, cfg.Slot.TTL)
	case config.SlotDriverDatabase:
		return slot.NewDatabase(dbClient.DB())
	default:
		return slot.NewMemory(), nil
	}
}

func userRegistry(ctx context.Context, cfg *config.Config, dbClient *db.Client) (session.Registry, error) {
	if !strings.EqualFold(cfg.Session.RegistryDriver, config.RegistryDriverDatabase) {
		var seed []session.User
		if cfg.Session.SeedUsers {
			seed = session.DefaultUsers()
		}
		return session.NewMemoryRegistry(seed...), nil
	}

	repo, err := users.NewRepository(dbClient.DB())
	if err != nil {
		return nil, err
	}
	if cfg.Session.SeedUsers {
		err := dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			seeder, err := users.NewRepository(tx)
			if err != nil {
				return err
			}
			return seeder.Seed(ctx, session.DefaultUsers())
		})
		if err != nil {
			return nil, fmt.Errorf("seed users: %w", err)
		}
	}
	return repo, nil
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(cfg.Path)
}
