package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	API          APIConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Security     SecurityConfig
	Storefront   StorefrontConfig
	Ads          AdsConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARGINLY_APP_ENV" required:"true"`
	Port         string `envconfig:"MARGINLY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARGINLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARGINLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MARGINLY_SERVICE_KIND" default:"api"`
}

// APIConfig covers the HTTP surface.
type APIConfig struct {
	CORSOrigins    []string      `envconfig:"MARGINLY_CORS_ORIGINS" default:"http://localhost:3000"`
	SyncRateLimit  int           `envconfig:"MARGINLY_SYNC_RATE_LIMIT" default:"6"`
	SyncRateWindow time.Duration `envconfig:"MARGINLY_SYNC_RATE_WINDOW" default:"1m"`
}

type DBConfig struct {
	DSN    string `envconfig:"MARGINLY_DB_DSN"`
	Driver string `envconfig:"MARGINLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARGINLY_DB_HOST"`
	LegacyPort     int    `envconfig:"MARGINLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARGINLY_DB_USER"`
	LegacyPassword string `envconfig:"MARGINLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARGINLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARGINLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARGINLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARGINLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARGINLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARGINLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARGINLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARGINLY_REDIS_ADDR"`
	Password     string        `envconfig:"MARGINLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARGINLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARGINLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARGINLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARGINLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARGINLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARGINLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the identity service.
type JWTConfig struct {
	Secret string `envconfig:"MARGINLY_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"MARGINLY_JWT_ISSUER" required:"true"`
}

// SecurityConfig holds the credential encryption key as 64 hex characters.
type SecurityConfig struct {
	EncryptionKey    string `envconfig:"MARGINLY_ENCRYPTION_KEY" required:"true"`
	OldEncryptionKey string `envconfig:"MARGINLY_OLD_ENCRYPTION_KEY"`
}

type StorefrontConfig struct {
	APIVersion string        `envconfig:"MARGINLY_STOREFRONT_API_VERSION" default:"2024-01"`
	Timeout    time.Duration `envconfig:"MARGINLY_STOREFRONT_TIMEOUT" default:"15s"`
	// BaseURLOverride points every store at a single host. Only used against fakes.
	BaseURLOverride string `envconfig:"MARGINLY_STOREFRONT_BASE_URL"`
}

type AdsConfig struct {
	ClientID       string        `envconfig:"MARGINLY_GOOGLE_ADS_CLIENT_ID"`
	ClientSecret   string        `envconfig:"MARGINLY_GOOGLE_ADS_CLIENT_SECRET"`
	DeveloperToken string        `envconfig:"MARGINLY_GOOGLE_ADS_DEVELOPER_TOKEN"`
	APIVersion     string        `envconfig:"MARGINLY_GOOGLE_ADS_API_VERSION" default:"v17"`
	Timeout        time.Duration `envconfig:"MARGINLY_GOOGLE_ADS_TIMEOUT" default:"20s"`
}

// Enabled reports whether enough configuration is present to call the Ads API.
func (a AdsConfig) Enabled() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.DeveloperToken != ""
}

type SyncConfig struct {
	Lookback      time.Duration `envconfig:"MARGINLY_SYNC_LOOKBACK" default:"720h"`
	LockTTL       time.Duration `envconfig:"MARGINLY_SYNC_LOCK_TTL" default:"10m"`
	PassTimeout   time.Duration `envconfig:"MARGINLY_SYNC_PASS_TIMEOUT" default:"5m"`
	Schedule      string        `envconfig:"MARGINLY_SYNC_SCHEDULE" default:"@every 1h"`
	WorkerLockTTL time.Duration `envconfig:"MARGINLY_SYNC_WORKER_LOCK_TTL" default:"55m"`
	Concurrency   int           `envconfig:"MARGINLY_SYNC_CONCURRENCY" default:"4"`
}

type FeatureFlagsConfig struct {
	UseSQLite     bool `envconfig:"MARGINLY_USE_SQLITE" default:"false"`
	AutoMigrate   bool `envconfig:"MARGINLY_AUTO_MIGRATE" default:"false"`
	PublishEvents bool `envconfig:"MARGINLY_PUBLISH_EVENTS" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"MARGINLY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARGINLY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MARGINLY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARGINLY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SyncTopic        string `envconfig:"MARGINLY_PUBSUB_SYNC_TOPIC" default:"marginly-sync-events"`
	SyncSubscription string `envconfig:"MARGINLY_PUBSUB_SYNC_SUBSCRIPTION" default:"marginly-sync-events-analytics"`
}

type BigQueryConfig struct {
	Dataset           string `envconfig:"MARGINLY_BIGQUERY_DATASET" default:"marginly"`
	DailyMetricsTable string `envconfig:"MARGINLY_BIGQUERY_DAILY_METRICS_TABLE" default:"daily_metrics"`
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
