package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgauth "github.com/angelmondragon/totem-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

type stubAuthenticator struct {
	claims *pkgauth.AdminClaims
	err    error
	seen   string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*pkgauth.AdminClaims, error) {
	s.seen = token
	return s.claims, s.err
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	auth := &stubAuthenticator{}
	handler := AdminAuth(auth, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if auth.seen != "" {
		t.Fatalf("authenticator should not be called")
	}
}

func TestAdminAuthRejectsInvalidToken(t *testing.T) {
	auth := &stubAuthenticator{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")}
	handler := AdminAuth(auth, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if auth.seen != "nope" {
		t.Fatalf("expected bearer prefix stripped, got %q", auth.seen)
	}
}

func TestAdminAuthSeedsClaims(t *testing.T) {
	claims := &pkgauth.AdminClaims{
		Role:             pkgauth.RoleAdmin,
		KioskID:          "kiosk-1",
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"},
	}
	auth := &stubAuthenticator{claims: claims}

	var captured *pkgauth.AdminClaims
	handler := AdminAuth(auth, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = AdminClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "token-without-scheme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if captured == nil || captured.ID != "jti-1" {
		t.Fatalf("claims not propagated: %+v", captured)
	}
	if auth.seen != "token-without-scheme" {
		t.Fatalf("unexpected token %q", auth.seen)
	}
}
