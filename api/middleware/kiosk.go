package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/totem-backend/api/responses"
	"github.com/angelmondragon/totem-backend/internal/session"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

// KioskIDParam is the route parameter naming the kiosk.
const KioskIDParam = "kioskID"

// KioskContext validates the kiosk path parameter and tags the request
// context and logs with it.
func KioskContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kioskID := chi.URLParam(r, KioskIDParam)
			if !session.ValidKioskID(kioskID) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid kiosk id").
					WithDetails(map[string]any{"field": KioskIDParam}))
				return
			}
			ctx := WithKioskID(r.Context(), kioskID)
			if logg != nil {
				ctx = logg.WithKioskID(ctx, kioskID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
