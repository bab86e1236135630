package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/totem-backend/api/responses"
	"github.com/angelmondragon/totem-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

const (
	envHeader        = "X-Totem-Env"
	readinessTimeout = 2 * time.Second
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis. Redis is
// optional so its failure is reported without failing readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, db Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				checks["database"] = "down"
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable").
					WithDetails(checks))
				return
			}
			checks["database"] = "ok"
		}
		if cache != nil {
			checks["redis"] = "ok"
			if err := cache.Ping(ctx); err != nil {
				checks["redis"] = "degraded"
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "health.redis_degraded")
				}
			}
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
