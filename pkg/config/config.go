package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PRAVNA_DB_DSN"
	EnvDBHost = "PRAVNA_DB_HOST"
	EnvDBUser = "PRAVNA_DB_USER"
	EnvDBName = "PRAVNA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Quota         QuotaConfig
	OpenAI        OpenAIConfig
	Stripe        StripeConfig
	GCS           GCSConfig
	GCP           GCPConfig
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
	Env          string `envconfig:"PRAVNA_APP_ENV" required:"true"`
	Port         string `envconfig:"PRAVNA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRAVNA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRAVNA_LOG_WARN_STACK" default:"false"`
	SiteURL      string `envconfig:"PRAVNA_SITE_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PRAVNA_DB_DSN"`
	Driver string `envconfig:"PRAVNA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRAVNA_DB_HOST"`
	LegacyPort     int    `envconfig:"PRAVNA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRAVNA_DB_USER"`
	LegacyPassword string `envconfig:"PRAVNA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRAVNA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRAVNA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRAVNA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRAVNA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRAVNA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRAVNA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRAVNA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRAVNA_REDIS_ADDR"`
	Password     string        `envconfig:"PRAVNA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRAVNA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRAVNA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRAVNA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRAVNA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRAVNA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRAVNA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRAVNA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRAVNA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRAVNA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type AuthRateLimitConfig struct {
	ChatWindow  time.Duration `envconfig:"PRAVNA_RATE_LIMIT_CHAT_WINDOW" default:"1m"`
	ChatIPLimit int           `envconfig:"PRAVNA_RATE_LIMIT_CHAT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRAVNA_AUTO_MIGRATE" default:"false"`
}

// QuotaConfig controls daily quota accounting. ResetTimezone is the IANA zone
// in which the usage day rolls over.
type QuotaConfig struct {
	ResetTimezone string `envconfig:"PRAVNA_QUOTA_RESET_TZ" default:"UTC"`
}

type OpenAIConfig struct {
	APIKey    string        `envconfig:"PRAVNA_OPENAI_API_KEY" required:"true"`
	BaseURL   string        `envconfig:"PRAVNA_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model     string        `envconfig:"PRAVNA_OPENAI_MODEL" default:"gpt-4o"`
	MaxTokens int           `envconfig:"PRAVNA_OPENAI_MAX_TOKENS" default:"2000"`
	Timeout   time.Duration `envconfig:"PRAVNA_OPENAI_TIMEOUT" default:"120s"`
}

type GCSConfig struct {
	BucketName string `envconfig:"PRAVNA_GCS_BUCKET"`
}

type GCPConfig struct {
	CredentialsJSON        string `envconfig:"PRAVNA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRAVNA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"PRAVNA_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"PRAVNA_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"PRAVNA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
