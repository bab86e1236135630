package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/totem-backend/api/responses"
	pkgauth "github.com/angelmondragon/totem-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type adminAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*pkgauth.AdminClaims, error)
}

// BearerToken extracts the token from an Authorization header. The scheme
// prefix is optional.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}

// AdminAuth requires a live admin token and seeds the request context with
// its claims.
func AdminAuth(auth adminAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := withAdminClaims(r.Context(), claims)
			if logg != nil {
				fields := map[string]any{
					"actor_role": claims.Role,
					"admin_jti":  claims.ID,
				}
				if claims.KioskID != "" {
					fields["kiosk_id"] = claims.KioskID
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
