package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TOTEM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	CheckoutModeSync  = "sync"
	CheckoutModeAsync = "async"
)

const (
	EnvAppEnv     = "TOTEM_APP_ENV"
	EnvPort       = "TOTEM_APP_PORT"
	EnvDBDSN      = "TOTEM_DB_DSN"
	EnvDBDriver   = "TOTEM_DB_DRIVER"
	EnvDBHost     = "TOTEM_DB_HOST"
	EnvDBUser     = "TOTEM_DB_USER"
	EnvDBName     = "TOTEM_DB_NAME"
	EnvRedisURL   = "TOTEM_REDIS_URL"
	EnvJWTSecret  = "TOTEM_JWT_SECRET"
	EnvAdminPIN   = "TOTEM_ADMIN_PIN"
	EnvTicketMode = "TOTEM_TICKET_STRATEGY"
	EnvCheckout   = "TOTEM_CHECKOUT_MODE"
	EnvUseSQLite  = "TOTEM_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	Catalog      CatalogConfig
	Session      SessionConfig
	Ticket       TicketConfig
	Checkout     CheckoutConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TOTEM_APP_ENV" required:"true"`
	Port         string `envconfig:"TOTEM_APP_PORT" default:"8080"`
	InstanceID   string `envconfig:"TOTEM_INSTANCE_ID"`
	LogLevel     string `envconfig:"TOTEM_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"TOTEM_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"TOTEM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TOTEM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"TOTEM_DB_DSN"`
	Driver     string `envconfig:"TOTEM_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"TOTEM_DB_SQLITE_PATH" default:"file:totem.db?cache=shared"`

	LegacyHost     string `envconfig:"TOTEM_DB_HOST"`
	LegacyPort     int    `envconfig:"TOTEM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TOTEM_DB_USER"`
	LegacyPassword string `envconfig:"TOTEM_DB_PASSWORD"`
	LegacyName     string `envconfig:"TOTEM_DB_NAME"`
	LegacySSLMode  string `envconfig:"TOTEM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TOTEM_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"TOTEM_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TOTEM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TOTEM_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"TOTEM_DB_SLOW_QUERY" default:"200ms"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// RedisConfig is optional: an empty URL and address disables the snapshot
// cache and falls back to in-process admin rate limiting.
type RedisConfig struct {
	URL          string        `envconfig:"TOTEM_REDIS_URL"`
	Address      string        `envconfig:"TOTEM_REDIS_ADDR"`
	Password     string        `envconfig:"TOTEM_REDIS_PASSWORD"`
	DB           int           `envconfig:"TOTEM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TOTEM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TOTEM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TOTEM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TOTEM_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"TOTEM_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"TOTEM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TOTEM_JWT_ISSUER" default:"totem"`
	ExpirationMinutes int    `envconfig:"TOTEM_JWT_EXPIRATION_MINUTES" default:"15"`
}

// AdminConfig drives the PIN gate in front of the dashboard.
type AdminConfig struct {
	PIN          string        `envconfig:"TOTEM_ADMIN_PIN" default:"1234"`
	PINHash      string        `envconfig:"TOTEM_ADMIN_PIN_HASH"`
	PINMaxLength int           `envconfig:"TOTEM_ADMIN_PIN_MAX_LENGTH" default:"10"`
	LoginWindow  time.Duration `envconfig:"TOTEM_ADMIN_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit int           `envconfig:"TOTEM_ADMIN_LOGIN_IP_LIMIT" default:"5"`

	// LoginFailureLimit caps failed logins per window across all clients.
	LoginFailureLimit int `envconfig:"TOTEM_ADMIN_LOGIN_FAILURE_LIMIT" default:"20"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is honoured.
	// Empty means the peer address is the client.
	TrustedProxies []string `envconfig:"TOTEM_TRUSTED_PROXIES"`

	ArgonMemoryKB    int `envconfig:"TOTEM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TOTEM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TOTEM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TOTEM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TOTEM_ARGON_KEY_LEN" default:"32"`
}

type CatalogConfig struct {
	RefreshInterval    time.Duration `envconfig:"TOTEM_CATALOG_REFRESH_INTERVAL" default:"30s"`
	CacheTTL           time.Duration `envconfig:"TOTEM_CATALOG_CACHE_TTL" default:"30m"`
	FetchTimeout       time.Duration `envconfig:"TOTEM_CATALOG_FETCH_TIMEOUT" default:"5s"`
	MockFallback       bool          `envconfig:"TOTEM_CATALOG_MOCK_FALLBACK" default:"true"`
	BestsellerCategory string        `envconfig:"TOTEM_CATALOG_BESTSELLER_CATEGORY" default:"Mais Vendidos"`
}

type SessionConfig struct {
	IdleTimeout  time.Duration `envconfig:"TOTEM_SESSION_IDLE_TIMEOUT" default:"3m"`
	MaxCartItems int           `envconfig:"TOTEM_SESSION_MAX_CART_ITEMS" default:"50"`
	MaxNameLen   int           `envconfig:"TOTEM_SESSION_MAX_NAME_LENGTH" default:"50"`
	MaxKiosks    int           `envconfig:"TOTEM_SESSION_MAX_KIOSKS" default:"64"`
}

type TicketConfig struct {
	Strategy string `envconfig:"TOTEM_TICKET_STRATEGY" default:"sequential"`
	Timezone string `envconfig:"TOTEM_TICKET_TIMEZONE" default:"America/Sao_Paulo"`
}

// Location resolves the configured timezone, defaulting to UTC when unknown.
func (t TicketConfig) Location() *time.Location {
	if strings.TrimSpace(t.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type CheckoutConfig struct {
	Mode    string        `envconfig:"TOTEM_CHECKOUT_MODE" default:"sync"`
	Timeout time.Duration `envconfig:"TOTEM_CHECKOUT_TIMEOUT" default:"5s"`
}

func (c CheckoutConfig) IsAsync() bool {
	return strings.EqualFold(strings.TrimSpace(c.Mode), CheckoutModeAsync)
}

func (c CheckoutConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case CheckoutModeSync, CheckoutModeAsync:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q", EnvCheckout, CheckoutModeSync, CheckoutModeAsync)
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TOTEM_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TOTEM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TOTEM_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
