package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/api/responses"
	checkoutsvc "github.com/angelmondragon/totem-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type orderSubmitter interface {
	Submit(ctx context.Context, kioskID string) (checkoutsvc.Confirmation, error)
}

// Checkout submits the kiosk's ready session. A confirmation is returned even
// when the order could not be stored; Persisted tells the two apart.
func Checkout(svc orderSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		conf, err := svc.Submit(r.Context(), middleware.KioskIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if conf.Queued {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, conf)
	}
}
