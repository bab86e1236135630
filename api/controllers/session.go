package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/api/responses"
	"github.com/angelmondragon/totem-backend/api/validators"
	"github.com/angelmondragon/totem-backend/internal/session"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type sessionDriver interface {
	View(ctx context.Context, kioskID string) (session.View, error)
	Apply(ctx context.Context, kioskID string, action session.Action) (session.View, error)
	Reset(ctx context.Context, kioskID string) (session.View, error)
}

type sessionActionRequest struct {
	Type          session.ActionType `json:"type" validate:"required,max=40"`
	OrderType     string             `json:"order_type,omitempty" validate:"omitempty,oneof=dine-in takeaway"`
	CategoryID    string             `json:"category_id,omitempty" validate:"max=64"`
	ProductID     string             `json:"product_id,omitempty" validate:"max=64"`
	ComplementID  string             `json:"complement_id,omitempty" validate:"max=64"`
	Ingredient    string             `json:"ingredient,omitempty" validate:"max=100"`
	Step          string             `json:"step,omitempty" validate:"max=40"`
	Quantity      int                `json:"quantity,omitempty" validate:"min=0,max=99"`
	LineID        string             `json:"line_id,omitempty" validate:"max=64"`
	Delta         int                `json:"delta,omitempty" validate:"min=-1,max=1"`
	Digit         string             `json:"digit,omitempty" validate:"omitempty,len=1,numeric"`
	Text          string             `json:"text,omitempty" validate:"max=100"`
	WantsReceipt  *bool              `json:"wants_receipt,omitempty"`
	PaymentMethod string             `json:"payment_method,omitempty" validate:"max=20"`
	ErrorKind     string             `json:"error_kind,omitempty" validate:"max=20"`
}

func (r sessionActionRequest) action() session.Action {
	return session.Action{
		Type:          r.Type,
		OrderType:     r.OrderType,
		CategoryID:    r.CategoryID,
		ProductID:     r.ProductID,
		ComplementID:  r.ComplementID,
		Ingredient:    r.Ingredient,
		Step:          r.Step,
		Quantity:      r.Quantity,
		LineID:        r.LineID,
		Delta:         r.Delta,
		Digit:         r.Digit,
		Text:          r.Text,
		WantsReceipt:  r.WantsReceipt,
		PaymentMethod: r.PaymentMethod,
		ErrorKind:     r.ErrorKind,
	}
}

// SessionView returns the kiosk's current screen state.
func SessionView(svc sessionDriver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		view, err := svc.View(r.Context(), middleware.KioskIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionApply feeds one customer or operator input to the kiosk's state
// machine and returns the resulting view.
func SessionApply(svc sessionDriver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var payload sessionActionRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Apply(r.Context(), middleware.KioskIDFromContext(r.Context()), payload.action())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionReset returns the kiosk to the welcome screen from any state.
func SessionReset(svc sessionDriver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		view, err := svc.Reset(r.Context(), middleware.KioskIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
