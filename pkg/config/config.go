package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "buyback"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "BUYBACK_APP_ENV"
	EnvPort     = "BUYBACK_APP_PORT"
	EnvDBDSN    = "BUYBACK_DB_DSN"
	EnvDBHost   = "BUYBACK_DB_HOST"
	EnvDBUser   = "BUYBACK_DB_USER"
	EnvDBName   = "BUYBACK_DB_NAME"
	EnvRedisURL = "BUYBACK_REDIS_URL"

	EnvJWTSecret  = "BUYBACK_JWT_SECRET"
	EnvJWTIssuer  = "BUYBACK_JWT_ISSUER"
	EnvJWTExpMins = "BUYBACK_JWT_EXPIRATION_MINUTES"

	EnvPubSubProjectID   = "BUYBACK_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "BUYBACK_PUBSUB_DOMAIN_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Session      SessionConfig
	Commission   CommissionConfig
	Orders       OrdersConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BUYBACK_APP_ENV" required:"true"`
	Port         string `envconfig:"BUYBACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BUYBACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BUYBACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BUYBACK_DB_DSN"`
	Driver string `envconfig:"BUYBACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BUYBACK_DB_HOST"`
	LegacyPort     int    `envconfig:"BUYBACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BUYBACK_DB_USER"`
	LegacyPassword string `envconfig:"BUYBACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BUYBACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BUYBACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BUYBACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BUYBACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BUYBACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BUYBACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BUYBACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BUYBACK_REDIS_ADDR"`
	Password     string        `envconfig:"BUYBACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BUYBACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BUYBACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BUYBACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BUYBACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BUYBACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BUYBACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret              string `envconfig:"BUYBACK_JWT_SECRET" required:"true"`
	Issuer              string `envconfig:"BUYBACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes   int    `envconfig:"BUYBACK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenMinutes int    `envconfig:"BUYBACK_JWT_REFRESH_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh session lifetime.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenMinutes) * time.Minute
}

type SessionConfig struct {
	TTL           time.Duration `envconfig:"BUYBACK_SESSION_TTL" default:"24h"`
	MaxExtension  time.Duration `envconfig:"BUYBACK_SESSION_MAX_EXTENSION" default:"72h"`
	SweepInterval time.Duration `envconfig:"BUYBACK_SESSION_SWEEP_INTERVAL" default:"1h"`
}

type CommissionConfig struct {
	DefaultRatePercent float64 `envconfig:"BUYBACK_COMMISSION_DEFAULT_RATE" default:"3"`
}

type OrdersConfig struct {
	NumberPrefix   string `envconfig:"BUYBACK_ORDER_NUMBER_PREFIX" default:"BB"`
	ReopenOnReject bool   `envconfig:"BUYBACK_ORDER_REOPEN_ON_REJECT" default:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BUYBACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BUYBACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BUYBACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	ProjectID          string `envconfig:"BUYBACK_GCP_PROJECT_ID"`
	DomainTopic        string `envconfig:"BUYBACK_PUBSUB_DOMAIN_TOPIC" default:"buyback-domain-events"`
	DomainSubscription string `envconfig:"BUYBACK_PUBSUB_DOMAIN_SUBSCRIPTION" default:"buyback-domain-events-ledger"`
}

type RateLimitConfig struct {
	QuoteWindow    time.Duration `envconfig:"BUYBACK_RATE_LIMIT_QUOTE_WINDOW" default:"1m"`
	QuoteIPLimit   int           `envconfig:"BUYBACK_RATE_LIMIT_QUOTE_IP" default:"30"`
	QuoteUserLimit int           `envconfig:"BUYBACK_RATE_LIMIT_QUOTE_USER" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BUYBACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BUYBACK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
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
