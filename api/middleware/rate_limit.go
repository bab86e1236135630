package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/totem-backend/api/responses"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	WindowCount(ctx context.Context, scope string) (int64, error)
}

// RateLimitPolicy throttles one traffic surface by client IP and, optionally,
// by failed attempts across all clients.
type RateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int
	failureLimit int
}

// NewRateLimitPolicy builds a policy with the supplied window and limit.
func NewRateLimitPolicy(name string, window time.Duration, ipLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:    strings.ToLower(strings.TrimSpace(name)),
		window:  window,
		ipLimit: ipLimit,
	}
}

// WithFailureLimit blocks the surface for everyone once limit responses in
// the window were 401.
func (p RateLimitPolicy) WithFailureLimit(limit int) RateLimitPolicy {
	p.failureLimit = limit
	return p
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.failureLimit > 0)
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "admin-login"
	}
	return p.name
}

func (p RateLimitPolicy) ipKey(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p RateLimitPolicy) failureKey() string {
	return "failures:" + p.normalizedName()
}

// RateLimit enforces the policy. A store error fails open so a Redis outage
// cannot lock the operator out.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := ClientIP(r)

			if policy.failureLimit > 0 {
				failures, err := store.WindowCount(ctx, policy.failureKey())
				if err != nil {
					storeUnavailable(ctx, logg, err)
				} else if failures >= int64(policy.failureLimit) {
					respondRateLimited(ctx, logg, w, policy, ip, failures, "global_failures")
					return
				}
			}

			if key := policy.ipKey(ip); key != "" && policy.ipLimit > 0 {
				allowed, count, err := store.FixedWindowAllow(ctx, key, int64(policy.ipLimit), policy.window)
				if err != nil {
					storeUnavailable(ctx, logg, err)
				} else if !allowed {
					respondRateLimited(ctx, logg, w, policy, ip, count, "ip")
					return
				}
			}

			if policy.failureLimit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == http.StatusUnauthorized {
				if _, _, err := store.FixedWindowAllow(ctx, policy.failureKey(), int64(policy.failureLimit), policy.window); err != nil {
					storeUnavailable(ctx, logg, err)
				}
			}
		})
	}
}

func storeUnavailable(ctx context.Context, logg *logger.Logger, err error) {
	if logg != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate_limit.store_unavailable")
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, ip string, count int64, scope string) {
	retryAfter := int(policy.window.Seconds())
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"policy":         policy.normalizedName(),
			"scope":          scope,
			"ip":             ip,
			"attempts":       count,
			"ip_limit":       policy.ipLimit,
			"failure_limit":  policy.failureLimit,
			"window_seconds": retryAfter,
		})
		logg.Warn(logCtx, "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	responses.WriteError(ctx, nil, w, err)
}

// MemoryCounter is an in-process fixed window store used when Redis is not
// configured. Counts are per replica.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]memoryWindow
}

type memoryWindow struct {
	count   int64
	expires time.Time
}

func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{now: now, windows: map[string]memoryWindow{}}
}

func (m *MemoryCounter) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, w := range m.windows {
		if !now.Before(w.expires) {
			delete(m.windows, k)
		}
	}
	w, ok := m.windows[scope]
	if !ok {
		w.expires = now.Add(window)
	}
	w.count++
	m.windows[scope] = w
	return w.count <= limit, w.count, nil
}

// WindowCount reads the current count of scope without adding to it.
func (m *MemoryCounter) WindowCount(_ context.Context, scope string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[scope]
	if !ok || !m.now().Before(w.expires) {
		return 0, nil
	}
	return w.count, nil
}
