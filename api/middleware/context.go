package middleware

import (
	"context"

	pkgauth "github.com/angelmondragon/totem-backend/pkg/auth"
)

type contextKey string

const (
	ctxKioskID     contextKey = "kiosk_id"
	ctxAdminClaims contextKey = "admin_claims"
)

func KioskIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKioskID).(string); ok {
		return v
	}
	return ""
}

// AdminClaimsFromContext returns the verified admin token claims, or nil on
// routes outside the admin group.
func AdminClaimsFromContext(ctx context.Context) *pkgauth.AdminClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxAdminClaims).(*pkgauth.AdminClaims); ok {
		return v
	}
	return nil
}

// WithKioskID injects the kiosk identifier into the context.
func WithKioskID(ctx context.Context, kioskID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKioskID, kioskID)
}

func withAdminClaims(ctx context.Context, claims *pkgauth.AdminClaims) context.Context {
	return context.WithValue(ctx, ctxAdminClaims, claims)
}
