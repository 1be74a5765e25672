package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every configuration variable.
const EnvPrefix = "AGRICORUS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical environment variable names, exported for tests and tooling.
const (
	EnvAppEnv                 = "AGRICORUS_APP_ENV"
	EnvPort                   = "AGRICORUS_APP_PORT"
	EnvDBDSN                  = "AGRICORUS_DB_DSN"
	EnvDBHost                 = "AGRICORUS_DB_HOST"
	EnvDBUser                 = "AGRICORUS_DB_USER"
	EnvDBName                 = "AGRICORUS_DB_NAME"
	EnvRedisURL               = "AGRICORUS_REDIS_URL"
	EnvJWTSecret              = "AGRICORUS_JWT_SECRET"
	EnvJWTIssuer              = "AGRICORUS_JWT_ISSUER"
	EnvJWTExpMins             = "AGRICORUS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "AGRICORUS_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "AGRICORUS_GCP_PROJECT_ID"
	EnvRazorpayKeyID          = "AGRICORUS_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret      = "AGRICORUS_RAZORPAY_KEY_SECRET"
	EnvPubSubEventsTopic      = "AGRICORUS_PUBSUB_EVENTS_TOPIC"
	EnvPubSubNotificationSub  = "AGRICORUS_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Razorpay      RazorpayConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"AGRICORUS_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRICORUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGRICORUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRICORUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGRICORUS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGRICORUS_DB_DSN"`
	Driver string `envconfig:"AGRICORUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRICORUS_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRICORUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRICORUS_DB_USER"`
	LegacyPassword string `envconfig:"AGRICORUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRICORUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRICORUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRICORUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRICORUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRICORUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRICORUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRICORUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRICORUS_REDIS_ADDR"`
	Password     string        `envconfig:"AGRICORUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRICORUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRICORUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRICORUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRICORUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRICORUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRICORUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"AGRICORUS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"AGRICORUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"AGRICORUS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"AGRICORUS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGRICORUS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGRICORUS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGRICORUS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGRICORUS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGRICORUS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGRICORUS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AGRICORUS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGRICORUS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AGRICORUS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AGRICORUS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AGRICORUS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGRICORUS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGRICORUS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AGRICORUS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"AGRICORUS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AGRICORUS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic              string `envconfig:"AGRICORUS_PUBSUB_EVENTS_TOPIC" default:"agricorus-domain-events"`
	NotificationSubscription string `envconfig:"AGRICORUS_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"agricorus-notification-writer"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"AGRICORUS_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"AGRICORUS_RAZORPAY_KEY_SECRET"`
	BaseURL   string `envconfig:"AGRICORUS_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"AGRICORUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"AGRICORUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"AGRICORUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"AGRICORUS_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	MetricsPort           string        `envconfig:"AGRICORUS_CRON_METRICS_PORT" default:"9090"`
	RequestTTLInterval    time.Duration `envconfig:"AGRICORUS_CRON_REQUEST_TTL_INTERVAL" default:"10m"`
	LeaseCompleteInterval time.Duration `envconfig:"AGRICORUS_CRON_LEASE_COMPLETE_INTERVAL" default:"1h"`
	LockTTL               time.Duration `envconfig:"AGRICORUS_CRON_LOCK_TTL" default:"5m"`
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
