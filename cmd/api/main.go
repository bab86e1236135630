package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/totem-backend/api/controllers"
	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/api/routes"
	"github.com/angelmondragon/totem-backend/internal/admin"
	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/internal/checkout"
	"github.com/angelmondragon/totem-backend/internal/cron"
	"github.com/angelmondragon/totem-backend/internal/orders"
	"github.com/angelmondragon/totem-backend/internal/session"
	"github.com/angelmondragon/totem-backend/internal/ticket"
	pkgauth "github.com/angelmondragon/totem-backend/pkg/auth"
	authsession "github.com/angelmondragon/totem-backend/pkg/auth/session"
	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/db"
	"github.com/angelmondragon/totem-backend/pkg/env"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/angelmondragon/totem-backend/pkg/metrics"
	"github.com/angelmondragon/totem-backend/pkg/migrate"
	"github.com/angelmondragon/totem-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

const (
	restaurantKey   = "default"
	defaultAdminPIN = "1234"
	shutdownTimeout = 15 * time.Second
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
		Instance:    instanceID(cfg),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.App.IsProd() && cfg.Admin.PINHash == "" && cfg.Admin.PIN == defaultAdminPIN {
		logg.Warn(ctx, "admin PIN is the factory default, set TOTEM_ADMIN_PIN_HASH (see cmd/pinhash)")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		redisPinger controllers.Pinger
		authStore   authsession.Store  = authsession.NewMemoryStore(nil)
		limiter     routes.RateLimiter = middleware.NewMemoryCounter(nil)
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Warn(ctx, "redis unavailable, using in-process stores: "+err.Error())
		} else {
			redisPinger = redisClient
			authStore = redisClient
			limiter = redisClient
		}
	}

	catalogParams := catalog.ServiceParams{
		Primary:            catalog.NewRepository(dbClient.DB()),
		CacheTTL:           cfg.Catalog.CacheTTL,
		FetchTimeout:       cfg.Catalog.FetchTimeout,
		BestsellerCategory: cfg.Catalog.BestsellerCategory,
		Logger:             logg,
	}
	if cfg.Catalog.MockFallback {
		catalogParams.Fallback = catalog.NewMockSource()
	}
	if redisClient != nil {
		catalogParams.Cache = redisClient
		catalogParams.CacheKey = redisClient.CatalogSnapshotKey(restaurantKey)
	}
	catalogSvc, err := catalog.NewService(catalogParams)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	if _, err := catalogSvc.Refresh(ctx); err != nil {
		logg.Warn(ctx, "initial catalog load degraded: "+err.Error())
	}

	registry := session.NewRegistry(session.Limits{
		MaxCartItems: cfg.Session.MaxCartItems,
		MaxNameLen:   cfg.Session.MaxNameLen,
		MaxKiosks:    cfg.Session.MaxKiosks,
	}, nil)
	sessionSvc, err := session.NewService(registry, catalogSvc, logg, cfg.Session.IdleTimeout)
	if err != nil {
		logg.Error(ctx, "failed to create session service", err)
		os.Exit(1)
	}

	loc := cfg.Ticket.Location()
	orderSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg, loc, nil)
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	tickets, err := ticket.NewGenerator(cfg.Ticket.Strategy, loc, nil)
	if err != nil {
		logg.Error(ctx, "failed to create ticket generator", err)
		os.Exit(1)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checkoutSvc, err := checkout.NewService(checkout.Params{
		Sessions: registry,
		Orders:   orderSvc,
		Tickets:  tickets,
		Logger:   logg,
		Metrics:  metrics.NewCheckoutMetrics(promReg),
		Timeout:  cfg.Checkout.Timeout,
		Async:    cfg.Checkout.IsAsync(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	sessionManager, err := authsession.NewManager(authStore, pkgauth.TokenTTL(cfg.JWT))
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	adminSvc, err := admin.NewService(admin.ServiceParams{
		Admin:    cfg.Admin,
		JWT:      cfg.JWT,
		Sessions: sessionManager,
		Stats:    orderSvc,
		Catalog:  catalogSvc,
		Kiosks:   registry,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create admin service", err)
		os.Exit(1)
	}

	scheduler, err := newScheduler(cfg, logg, catalogSvc, sessionSvc, promReg)
	if err != nil {
		logg.Error(ctx, "failed to create scheduler", err)
		os.Exit(1)
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "scheduler stopped unexpectedly", err)
		}
	}()

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Admin.TrustedProxies)
	if err != nil {
		logg.Error(ctx, "failed to parse trusted proxies", err)
		os.Exit(1)
	}

	addr := ":" + env.FirstOf(cfg.App.Port, "PORT")
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"checkout": cfg.Checkout.Mode,
		"tickets":  string(tickets.Strategy()),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisPinger,
			RateLimiter:    limiter,
			TrustedProxies: trustedProxies,
			Catalog:        catalogSvc,
			Sessions:       sessionSvc,
			Checkout:       checkoutSvc,
			Admin:          adminSvc,
			Metrics:        promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		checkoutSvc.Close(shutdownCtx),
		dbClient.Close(),
	)
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	if err != nil {
		logg.Error(shutdownCtx, "unclean shutdown", err)
		os.Exit(1)
	}
	logg.Info(shutdownCtx, "api server stopped")
}

func instanceID(cfg *config.Config) string {
	if cfg.App.InstanceID != "" {
		return cfg.App.InstanceID
	}
	return env.FirstOf("local", "HOSTNAME")
}

func newScheduler(cfg *config.Config, logg *logger.Logger, catalogSvc catalog.Service, sessionSvc session.Service, reg prometheus.Registerer) (*cron.Service, error) {
	refresh, err := cron.NewCatalogRefreshJob(catalogSvc, logg)
	if err != nil {
		return nil, err
	}
	sweep, err := cron.NewSessionSweepJob(sessionSvc, logg)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(refresh, sweep),
		Metrics:  metrics.NewSchedulerMetrics(reg),
		Interval: cfg.Catalog.RefreshInterval,
	})
}
