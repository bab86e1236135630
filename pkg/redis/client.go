package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Every key lives under totem:<area>:...
const (
	keyNamespace = "totem"

	areaRateLimit    = "rate_limit"
	areaCatalog      = "catalog"
	areaAdminSession = "admin_session"
)

// ErrNotInitialized is returned when the client has no connection behind it.
var ErrNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Exists(context.Context, ...string) *redis.IntCmd
}

// Client backs three kiosk concerns with one connection: the catalog snapshot
// cache, admin session markers, and login rate-limit windows.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// New dials Redis and fails unless it answers a ping.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"redis_addr": opts.Addr, "redis_db": opts.DB}), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers TOTEM_REDIS_URL and lets the discrete settings fill
// whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url or address is required")
	}
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	}
	opts.DB = orDefault(opts.DB, cfg.DB)
	opts.PoolSize = orDefault(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = orDefault(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = orDefault(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = orDefault(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = orDefault(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func orDefault[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}

func (c *Client) ready() (cmdable, error) {
	if c == nil || c.store == nil {
		return nil, ErrNotInitialized
	}
	return c.store, nil
}

// Set stores value under key. The catalog service writes its snapshot here.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	store, err := c.ready()
	if err != nil {
		return err
	}
	return store.Set(ctx, key, value, ttl).Err()
}

// Get reads key. A missing key yields an error for which IsNil is true.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	store, err := c.ready()
	if err != nil {
		return "", err
	}
	return store.Get(ctx, key).Result()
}

// CatalogSnapshotKey names the last good menu snapshot of a restaurant.
func (c *Client) CatalogSnapshotKey(restaurant string) string {
	return buildKey(areaCatalog, "snapshot", restaurant)
}

// FixedWindowAllow counts one hit against scope. The window opens on the first
// hit and the call is allowed while the count stays within limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	store, err := c.ready()
	if err != nil {
		return false, 0, err
	}
	key := c.RateLimitKey(scope)
	count, err := store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 && window > 0 {
		if err := store.Expire(ctx, key, window).Err(); err != nil {
			return false, count, fmt.Errorf("open window %s: %w", key, err)
		}
	}
	return count <= limit, count, nil
}

// WindowCount reads the hits counted against scope in its open window.
func (c *Client) WindowCount(ctx context.Context, scope string) (int64, error) {
	store, err := c.ready()
	if err != nil {
		return 0, err
	}
	count, err := store.Get(ctx, c.RateLimitKey(scope)).Int64()
	if IsNil(err) {
		return 0, nil
	}
	return count, err
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(areaRateLimit, scope)
}

func (c *Client) AdminSessionKey(jti string) string {
	return buildKey(areaAdminSession, jti)
}

// StoreAdminSession marks the admin token live until ttl elapses.
func (c *Client) StoreAdminSession(ctx context.Context, jti string, ttl time.Duration) error {
	return c.Set(ctx, c.AdminSessionKey(jti), "1", ttl)
}

// HasAdminSession is false once the token was revoked or its marker expired.
func (c *Client) HasAdminSession(ctx context.Context, jti string) (bool, error) {
	store, err := c.ready()
	if err != nil {
		return false, err
	}
	n, err := store.Exists(ctx, c.AdminSessionKey(jti)).Result()
	return n > 0, err
}

func (c *Client) RevokeAdminSession(ctx context.Context, jti string) error {
	store, err := c.ready()
	if err != nil {
		return err
	}
	return store.Del(ctx, c.AdminSessionKey(jti)).Err()
}

// Ping backs the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	store, err := c.ready()
	if err != nil {
		return err
	}
	return store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// IsNil reports whether err signals a missing key.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func buildKey(parts ...string) string {
	key := keyNamespace
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			key += ":" + part
		}
	}
	return key
}
