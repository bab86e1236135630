package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/totem-backend/api/controllers"
	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/internal/admin"
	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/internal/checkout"
	"github.com/angelmondragon/totem-backend/internal/orders"
	"github.com/angelmondragon/totem-backend/internal/session"
	authsession "github.com/angelmondragon/totem-backend/pkg/auth/session"
	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/angelmondragon/totem-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubOrders struct{}

func (stubOrders) CreateOrder(ctx context.Context, data orders.OrderData) (orders.CreatedOrder, error) {
	return orders.CreatedOrder{ID: "0c1d2e3f-aaaa-bbbb-cccc-000000000001", OrderNumber: "150326-001"}, nil
}

type stubStats struct{}

func (stubStats) TodayStats(context.Context) orders.Stats { return orders.Stats{TodayOrders: 1} }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "totem", ExpirationMinutes: 15},
		Admin: config.AdminConfig{
			PIN:          "1234",
			PINMaxLength: 10,
			LoginWindow:  time.Minute,
			LoginIPLimit: 3,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, db controllers.Pinger) http.Handler {
	t.Helper()
	logg := logger.Nop()

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{Primary: catalog.NewMockSource(), Logger: logg})
	require.NoError(t, err)
	_, err = catalogSvc.Refresh(context.Background())
	require.NoError(t, err)

	registry := session.NewRegistry(session.DefaultLimits, nil)
	sessions, err := session.NewService(registry, catalogSvc, logg, time.Minute)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	checkoutSvc, err := checkout.NewService(checkout.Params{
		Sessions: registry,
		Orders:   stubOrders{},
		Logger:   logg,
		Metrics:  metrics.NewCheckoutMetrics(reg),
	})
	require.NoError(t, err)

	manager, err := authsession.NewManager(authsession.NewMemoryStore(nil), 15*time.Minute)
	require.NoError(t, err)
	adminSvc, err := admin.NewService(admin.ServiceParams{
		Admin:    cfg.Admin,
		JWT:      cfg.JWT,
		Sessions: manager,
		Stats:    stubStats{},
		Catalog:  catalogSvc,
		Kiosks:   registry,
		Logger:   logg,
	})
	require.NoError(t, err)

	return NewRouter(Params{
		Config:      cfg,
		Logger:      logg,
		DB:          db,
		RateLimiter: middleware.NewMemoryCounter(nil),
		Catalog:     catalogSvc,
		Sessions:    sessions,
		Checkout:    checkoutSvc,
		Admin:       adminSvc,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func call(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = "10.1.1.1:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, testConfig(), stubPinger{})
	rec := call(t, router, http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Totem-Env"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = call(t, router, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestRouter(t, testConfig(), stubPinger{err: errors.New("refused")})
	rec = call(t, down, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestKioskOrderEndToEnd(t *testing.T) {
	router := newTestRouter(t, testConfig(), stubPinger{})
	base := "/api/v1/kiosks/kiosk-1"

	steps := []string{
		`{"type":"start"}`,
		`{"type":"select_order_type","order_type":"dine-in"}`,
		`{"type":"select_product","product_id":"1"}`,
		`{"type":"toggle_complement","complement_id":"1"}`,
		`{"type":"add_to_cart"}`,
		`{"type":"open_cart"}`,
		`{"type":"checkout"}`,
		`{"type":"choose_receipt","wants_receipt":false}`,
		`{"type":"name_type","text":"Bia"}`,
		`{"type":"confirm_name"}`,
		`{"type":"select_payment","payment_method":"pix"}`,
	}
	for _, body := range steps {
		rec := call(t, router, http.MethodPost, base+"/session/actions", body, "")
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", body, rec.Body.String())
	}

	rec := call(t, router, http.MethodPost, base+"/checkout", "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var env struct {
		Data checkout.Confirmation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Data.Persisted)
	assert.Equal(t, "0C1D2E3F", env.Data.DisplayNumber)
	assert.Equal(t, "23.40", env.Data.Total)
	assert.Equal(t, "Bia", env.Data.CustomerName)

	rec = call(t, router, http.MethodGet, base+"/session", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"effective_screen":"welcome"`)

	rec = call(t, router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `checkout_submissions_total{outcome="persisted"} 1`)
}

func TestAdminGroupRequiresToken(t *testing.T) {
	router := newTestRouter(t, testConfig(), stubPinger{})

	rec := call(t, router, http.MethodGet, "/api/v1/admin/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/v1/admin/login", `{"pin":"1234"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Data admin.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	token := env.Data.Token
	require.NotEmpty(t, token)

	rec = call(t, router, http.MethodGet, "/api/v1/admin/dashboard", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"today_orders":1`)

	rec = call(t, router, http.MethodPost, "/api/v1/admin/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodGet, "/api/v1/admin/ping", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginIsRateLimited(t *testing.T) {
	router := newTestRouter(t, testConfig(), stubPinger{})

	for i := 0; i < 3; i++ {
		rec := call(t, router, http.MethodPost, "/api/v1/admin/login", `{"pin":"0000"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := call(t, router, http.MethodPost, "/api/v1/admin/login", `{"pin":"1234"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
