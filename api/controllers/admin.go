package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/api/responses"
	"github.com/angelmondragon/totem-backend/api/validators"
	"github.com/angelmondragon/totem-backend/internal/admin"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type adminService interface {
	Login(ctx context.Context, input admin.LoginInput) (admin.Session, error)
	Logout(ctx context.Context, token string) error
	Dashboard(ctx context.Context) admin.Dashboard
	RefreshCatalog(ctx context.Context) admin.CatalogStatus
}

// AdminLogin exchanges the operator PIN for a short lived bearer token.
func AdminLogin(svc adminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		var input admin.LoginInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ClientIP = middleware.ClientIP(r)

		sess, err := svc.Login(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess)
	}
}

// AdminLogout revokes the presented token, expired or not.
func AdminLogout(svc adminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		token, err := middleware.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func AdminDashboard(svc adminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Dashboard(r.Context()))
	}
}

// AdminRefreshCatalog forces a catalog reload. Degraded reloads still answer
// 200 with the status flagged.
func AdminRefreshCatalog(svc adminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.RefreshCatalog(r.Context()))
	}
}
