package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/internal/admin"
	checkoutsvc "github.com/angelmondragon/totem-backend/internal/checkout"
	"github.com/angelmondragon/totem-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type stubSubmitter struct {
	conf  checkoutsvc.Confirmation
	err   error
	kiosk string
}

func (s *stubSubmitter) Submit(ctx context.Context, kioskID string) (checkoutsvc.Confirmation, error) {
	s.kiosk = kioskID
	return s.conf, s.err
}

func checkoutRouter(svc orderSubmitter) http.Handler {
	r := chi.NewRouter()
	r.With(middleware.KioskContext(logger.Nop())).Post("/kiosks/{kioskID}/checkout", Checkout(svc, logger.Nop()))
	return r
}

func TestCheckoutStatusReflectsOutcome(t *testing.T) {
	stub := &stubSubmitter{conf: checkoutsvc.Confirmation{DisplayNumber: "A1B2C3D4", TicketCode: "455", Persisted: true}}
	rec := do(checkoutRouter(stub), http.MethodPost, "/kiosks/kiosk-9/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "kiosk-9", stub.kiosk)

	var conf checkoutsvc.Confirmation
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &conf))
	assert.Equal(t, "455", conf.TicketCode)

	stub.conf = checkoutsvc.Confirmation{DisplayNumber: "LOCAL-123456", Queued: true}
	rec = do(checkoutRouter(stub), http.MethodPost, "/kiosks/kiosk-9/checkout", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	stub.err = pkgerrors.New(pkgerrors.CodeStateConflict, "payment method required")
	rec = do(checkoutRouter(stub), http.MethodPost, "/kiosks/kiosk-9/checkout", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

type stubAdmin struct {
	login    admin.LoginInput
	loginErr error
	revoked  string
	refresh  int
}

func (s *stubAdmin) Login(ctx context.Context, input admin.LoginInput) (admin.Session, error) {
	s.login = input
	if s.loginErr != nil {
		return admin.Session{}, s.loginErr
	}
	return admin.Session{Token: "tok"}, nil
}

func (s *stubAdmin) Logout(ctx context.Context, token string) error {
	s.revoked = token
	return nil
}

func (s *stubAdmin) Dashboard(ctx context.Context) admin.Dashboard {
	return admin.Dashboard{Stats: orders.Stats{TodayOrders: 3}, Kiosks: []string{"kiosk-1"}}
}

func (s *stubAdmin) RefreshCatalog(ctx context.Context) admin.CatalogStatus {
	s.refresh++
	return admin.CatalogStatus{Degraded: true}
}

func adminRouter(svc adminService) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Post("/admin/login", AdminLogin(svc, logg))
	r.Post("/admin/logout", AdminLogout(svc, logg))
	r.Get("/admin/dashboard", AdminDashboard(svc, logg))
	r.Post("/admin/catalog/refresh", AdminRefreshCatalog(svc, logg))
	return r
}

func TestAdminLogin(t *testing.T) {
	stub := &stubAdmin{}
	h := adminRouter(stub)

	rec := do(h, http.MethodPost, "/admin/login", `{"pin":"1234","kiosk_id":"kiosk-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1234", stub.login.PIN)
	assert.NotEmpty(t, stub.login.ClientIP)

	rec = do(h, http.MethodPost, "/admin/login", `{"pin":"12a4"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/admin/login", `{"pin":"12345678901"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stub.loginErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid pin")
	rec = do(h, http.MethodPost, "/admin/login", `{"pin":"9999"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogoutRequiresBearer(t *testing.T) {
	stub := &stubAdmin{}
	h := adminRouter(stub)

	rec := do(h, http.MethodPost, "/admin/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tok", stub.revoked)
}

func TestAdminDashboardAndRefresh(t *testing.T) {
	stub := &stubAdmin{}
	h := adminRouter(stub)

	rec := do(h, http.MethodGet, "/admin/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash admin.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &dash))
	assert.Equal(t, int64(3), dash.Stats.TodayOrders)

	rec = do(h, http.MethodPost, "/admin/catalog/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.refresh)
}
