package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VENDORVERSE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SlotDriverMemory   = "memory"
	SlotDriverRedis    = "redis"
	SlotDriverDatabase = "database"

	RegistryDriverMemory   = "memory"
	RegistryDriverDatabase = "database"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "VENDORVERSE_APP_ENV"
	EnvPort              = "VENDORVERSE_APP_PORT"
	EnvLogLevel          = "VENDORVERSE_LOG_LEVEL"
	EnvLogFormat         = "VENDORVERSE_LOG_FORMAT"
	EnvSlotDriver        = "VENDORVERSE_SLOT_DRIVER"
	EnvRegistryDriver    = "VENDORVERSE_REGISTRY_DRIVER"
	EnvDBDSN             = "VENDORVERSE_DB_DSN"
	EnvDBDriver          = "VENDORVERSE_DB_DRIVER"
	EnvRedisURL          = "VENDORVERSE_REDIS_URL"
	EnvRedisAddr         = "VENDORVERSE_REDIS_ADDR"
	EnvClientTokenSecret = "VENDORVERSE_CLIENT_TOKEN_SECRET"
	EnvMockPassword      = "VENDORVERSE_MOCK_PASSWORD"
	EnvCatalogPath       = "VENDORVERSE_CATALOG_PATH"
	EnvCORSOrigins       = "VENDORVERSE_CORS_ORIGINS"
)

type Config struct {
	App           AppConfig
	Slot          SlotConfig
	DB            DBConfig
	Redis         RedisConfig
	ClientToken   ClientTokenConfig
	Session       SessionConfig
	Catalog       CatalogConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDORVERSE_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDORVERSE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VENDORVERSE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"VENDORVERSE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"VENDORVERSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// SlotConfig selects the durable key-value backend that stands in for browser storage.
type SlotConfig struct {
	Driver    string        `envconfig:"VENDORVERSE_SLOT_DRIVER" default:"memory"`
	Namespace string        `envconfig:"VENDORVERSE_SLOT_NAMESPACE" default:"vv"`
	TTL       time.Duration `envconfig:"VENDORVERSE_SLOT_TTL" default:"0s"`
}

type DBConfig struct {
	DSN         string `envconfig:"VENDORVERSE_DB_DSN"`
	Driver      string `envconfig:"VENDORVERSE_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"VENDORVERSE_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"VENDORVERSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDORVERSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDORVERSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDORVERSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDORVERSE_REDIS_URL"`
	Address      string        `envconfig:"VENDORVERSE_REDIS_ADDR"`
	Password     string        `envconfig:"VENDORVERSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDORVERSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDORVERSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDORVERSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDORVERSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDORVERSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDORVERSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// ClientTokenConfig signs the tokens that identify a browsing client.
type ClientTokenConfig struct {
	Secret            string `envconfig:"VENDORVERSE_CLIENT_TOKEN_SECRET" required:"true"`
	Issuer            string `envconfig:"VENDORVERSE_CLIENT_TOKEN_ISSUER" default:"vendorverse"`
	ExpirationMinutes int    `envconfig:"VENDORVERSE_CLIENT_TOKEN_EXPIRATION_MINUTES" default:"43200"`
}

// TTL returns the client token lifetime.
func (c ClientTokenConfig) TTL() time.Duration {
	if c.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(c.ExpirationMinutes) * time.Minute
}

type SessionConfig struct {
	RegistryDriver string        `envconfig:"VENDORVERSE_REGISTRY_DRIVER" default:"memory"`
	MockPassword   string        `envconfig:"VENDORVERSE_MOCK_PASSWORD" default:"password"`
	SeedUsers      bool          `envconfig:"VENDORVERSE_SEED_USERS" default:"true"`
	ClientIdleTTL  time.Duration `envconfig:"VENDORVERSE_CLIENT_IDLE_TTL" default:"30m"`
	MaxClients     int           `envconfig:"VENDORVERSE_MAX_CLIENTS" default:"10000"`
}

type CatalogConfig struct {
	Path          string `envconfig:"VENDORVERSE_CATALOG_PATH"`
	FeaturedCount int    `envconfig:"VENDORVERSE_CATALOG_FEATURED_COUNT" default:"4"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ClientWindow       time.Duration `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_CLIENT_WINDOW" default:"1m"`
	ClientIPLimit      int           `envconfig:"VENDORVERSE_AUTH_RATE_LIMIT_CLIENT_IP_LIMIT" default:"30"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"VENDORVERSE_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Slot.Driver) {
	case SlotDriverMemory:
	case SlotDriverRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvSlotDriver, SlotDriverRedis)
		}
	case SlotDriverDatabase:
		if err := c.DB.requireDSN(EnvSlotDriver); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvSlotDriver, c.Slot.Driver)
	}

	switch strings.ToLower(c.Session.RegistryDriver) {
	case RegistryDriverMemory:
	case RegistryDriverDatabase:
		if err := c.DB.requireDSN(EnvRegistryDriver); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvRegistryDriver, c.Session.RegistryDriver)
	}

	switch strings.ToLower(c.DB.Driver) {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}

	if c.Session.MockPassword == "" {
		return fmt.Errorf("%s cannot be empty", EnvMockPassword)
	}
	return nil
}

// UsesDatabase reports whether any component needs the SQL connection.
func (c *Config) UsesDatabase() bool {
	return strings.EqualFold(c.Slot.Driver, SlotDriverDatabase) ||
		strings.EqualFold(c.Session.RegistryDriver, RegistryDriverDatabase)
}

func (db DBConfig) requireDSN(dependent string) error {
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required by %s", EnvDBDSN, dependent)
	}
	return nil
}
