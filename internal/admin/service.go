package admin

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/internal/orders"
	pkgauth "github.com/angelmondragon/totem-backend/pkg/auth"
	authsession "github.com/angelmondragon/totem-backend/pkg/auth/session"
	"github.com/angelmondragon/totem-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/angelmondragon/totem-backend/pkg/security"
)

type statsReader interface {
	TodayStats(ctx context.Context) orders.Stats
}

type catalogReader interface {
	Snapshot() *catalog.Snapshot
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

type kioskLister interface {
	Kiosks() []string
}

// Service backs the PIN gated admin dashboard.
type Service interface {
	Login(ctx context.Context, input LoginInput) (Session, error)
	Authenticate(ctx context.Context, token string) (*pkgauth.AdminClaims, error)
	Logout(ctx context.Context, token string) error
	Dashboard(ctx context.Context) Dashboard
	RefreshCatalog(ctx context.Context) CatalogStatus
}

// ServiceParams wires the admin service.
type ServiceParams struct {
	Admin    config.AdminConfig
	JWT      config.JWTConfig
	Sessions *authsession.Manager
	Stats    statsReader
	Catalog  catalogReader
	Kiosks   kioskLister
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	admin    config.AdminConfig
	jwt      config.JWTConfig
	sessions *authsession.Manager
	stats    statsReader
	catalog  catalogReader
	kiosks   kioskLister
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the admin service.
func NewService(p ServiceParams) (Service, error) {
	if p.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if p.Stats == nil {
		return nil, fmt.Errorf("stats reader required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Admin.PINMaxLength <= 0 {
		p.Admin.PINMaxLength = 10
	}
	return &service{
		admin:    p.Admin,
		jwt:      p.JWT,
		sessions: p.Sessions,
		stats:    p.Stats,
		catalog:  p.Catalog,
		kiosks:   p.Kiosks,
		logg:     p.Logger,
		now:      p.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (Session, error) {
	pin := strings.TrimSpace(input.PIN)
	if err := s.validatePIN(pin); err != nil {
		return Session{}, err
	}

	ok, err := security.MatchPIN(pin, s.admin)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pin")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"kiosk_id": input.KioskID, "client_ip": input.ClientIP})
	if !ok {
		s.logg.Warn(logCtx, "admin.login.rejected")
		return Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid pin")
	}

	token, claims, err := pkgauth.MintAdminToken(s.jwt, s.now(), pkgauth.AdminTokenPayload{
		KioskID:  input.KioskID,
		ClientIP: input.ClientIP,
	})
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint admin token")
	}
	if err := s.sessions.Start(ctx, claims.ID); err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store admin session")
	}

	s.logg.Info(logCtx, "admin.login.accepted")
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *service) validatePIN(pin string) error {
	if pin == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pin is required")
	}
	if len(pin) > s.admin.PINMaxLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "pin must have at most %d digits", s.admin.PINMaxLength)
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return pkgerrors.New(pkgerrors.CodeValidation, "pin must be numeric")
		}
	}
	return nil
}

// Authenticate parses the token and confirms its session is still live.
func (s *service) Authenticate(ctx context.Context, token string) (*pkgauth.AdminClaims, error) {
	claims, err := pkgauth.ParseAdminToken(s.jwt, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	ok, err := s.sessions.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, authsession.ErrInvalidSession, "session unavailable")
	}
	return claims, nil
}

// Logout revokes the token's session. Expired tokens are accepted so a stale
// dashboard can still sign out.
func (s *service) Logout(ctx context.Context, token string) error {
	claims, err := pkgauth.ParseAdminTokenAllowExpired(s.jwt, token)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke admin session")
	}
	return nil
}

func (s *service) Dashboard(ctx context.Context) Dashboard {
	d := Dashboard{
		Stats:   s.stats.TodayStats(ctx),
		Catalog: catalogStatus(s.catalog.Snapshot()),
		Kiosks:  []string{},
	}
	if s.kiosks != nil {
		d.Kiosks = s.kiosks.Kiosks()
	}
	return d
}

// RefreshCatalog reloads the menu. Failures only mark the status degraded.
func (s *service) RefreshCatalog(ctx context.Context) CatalogStatus {
	snapshot, err := s.catalog.Refresh(ctx)
	status := catalogStatus(snapshot)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "origin", string(status.Origin)), "admin.catalog_refresh.degraded")
		status.Degraded = true
	}
	return status
}
