package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Upstream   UpstreamConfig
	Redis      RedisConfig
	LocalStore LocalStoreConfig
	Session    SessionConfig
	Cart       CartConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHARMGATE_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMGATE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMGATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMGATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points the gateway at the platform API that owns
// catalog, carts, promo validation, and order submission.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"PHARMGATE_UPSTREAM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"PHARMGATE_UPSTREAM_TIMEOUT" default:"15s"`
}

func (u UpstreamConfig) validate() error {
	if strings.TrimSpace(u.BaseURL) == "" {
		return fmt.Errorf("%s is required", EnvUpstreamBaseURL)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMGATE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHARMGATE_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMGATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMGATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMGATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMGATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMGATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMGATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMGATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// LocalStoreConfig configures the embedded per-visitor storage file.
type LocalStoreConfig struct {
	Path            string        `envconfig:"PHARMGATE_LOCALSTORE_PATH" default:"pharmgate.db"`
	AutoMigrate     bool          `envconfig:"PHARMGATE_LOCALSTORE_AUTO_MIGRATE" default:"true"`
	MaxOpenConns    int           `envconfig:"PHARMGATE_LOCALSTORE_MAX_OPEN_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMGATE_LOCALSTORE_CONN_MAX_LIFETIME" default:"1h"`
}

type SessionConfig struct {
	VisitorTTLMinutes  int `envconfig:"PHARMGATE_SESSION_VISITOR_TTL_MINUTES" default:"43200"`
	CheckoutTTLMinutes int `envconfig:"PHARMGATE_SESSION_CHECKOUT_TTL_MINUTES" default:"120"`
	PromoTTLMinutes    int `envconfig:"PHARMGATE_SESSION_PROMO_TTL_MINUTES" default:"120"`
}

// CheckoutTTL returns the checkout session TTL configured in minutes.
func (s SessionConfig) CheckoutTTL() time.Duration {
	if s.CheckoutTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.CheckoutTTLMinutes) * time.Minute
}

// PromoTTL returns the promo application TTL configured in minutes.
func (s SessionConfig) PromoTTL() time.Duration {
	if s.PromoTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.PromoTTLMinutes) * time.Minute
}

type CartConfig struct {
	DefaultMaxOrderQty int           `envconfig:"PHARMGATE_CART_DEFAULT_MAX_ORDER_QTY" default:"99"`
	RelatedLimit       int           `envconfig:"PHARMGATE_CART_RELATED_LIMIT" default:"10"`
	SequenceTTL        time.Duration `envconfig:"PHARMGATE_CART_SEQUENCE_TTL" default:"1h"`
}

// RateLimitConfig throttles credential guessing on the login route.
type RateLimitConfig struct {
	LoginWindow time.Duration `envconfig:"PHARMGATE_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginLimit  int64         `envconfig:"PHARMGATE_RATE_LIMIT_LOGIN_LIMIT" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PHARMGATE_CORS_ALLOWED_ORIGINS" default:"*"`
}
