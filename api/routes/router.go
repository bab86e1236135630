package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/totem-backend/api/controllers"
	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/internal/admin"
	"github.com/angelmondragon/totem-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/totem-backend/internal/checkout"
	"github.com/angelmondragon/totem-backend/internal/session"
	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

// RateLimiter counts admin login attempts per client IP and failed logins
// overall.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	WindowCount(ctx context.Context, scope string) (int64, error)
}

// Params carries everything the router mounts. Redis and Metrics are
// optional. A nil TrustedProxies ignores forwarding headers.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	RateLimiter    RateLimiter
	TrustedProxies *middleware.TrustedProxies
	Catalog        catalog.Service
	Sessions       session.Service
	Checkout       checkoutsvc.Service
	Admin          admin.Service
	Metrics        http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.RealIP(p.TrustedProxies),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"admin-login",
		cfg.Admin.LoginWindow,
		cfg.Admin.LoginIPLimit,
	).WithFailureLimit(cfg.Admin.LoginFailureLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing(p.Catalog))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogSnapshot(p.Catalog, logg))
			r.Get("/categories/{categoryID}/products", controllers.CatalogCategoryProducts(p.Catalog, logg))
		})
		r.Post("/cpf/validate", controllers.ValidateCPF(logg))

		r.Route("/kiosks/{"+middleware.KioskIDParam+"}", func(r chi.Router) {
			r.Use(middleware.KioskContext(logg))
			r.Get("/session", controllers.SessionView(p.Sessions, logg))
			r.Post("/session/actions", controllers.SessionApply(p.Sessions, logg))
			r.Post("/session/reset", controllers.SessionReset(p.Sessions, logg))
			r.Post("/checkout", controllers.Checkout(p.Checkout, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RateLimit(loginPolicy, p.RateLimiter, logg)).Post("/login", controllers.AdminLogin(p.Admin, logg))
			r.Post("/logout", controllers.AdminLogout(p.Admin, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(p.Admin, logg))
				r.Get("/ping", controllers.AdminPing())
				r.Get("/dashboard", controllers.AdminDashboard(p.Admin, logg))
				r.Post("/catalog/refresh", controllers.AdminRefreshCatalog(p.Admin, logg))
			})
		})
	})

	return r
}
