package config

const (
	EnvPrefix = "MARGINLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "MARGINLY_APP_ENV"
	EnvPort     = "MARGINLY_APP_PORT"
	EnvLogLevel = "MARGINLY_LOG_LEVEL"

	EnvDBDSN    = "MARGINLY_DB_DSN"
	EnvDBDriver = "MARGINLY_DB_DRIVER"
	EnvDBHost   = "MARGINLY_DB_HOST"
	EnvDBPort   = "MARGINLY_DB_PORT"
	EnvDBUser   = "MARGINLY_DB_USER"
	EnvDBPass   = "MARGINLY_DB_PASSWORD"
	EnvDBName   = "MARGINLY_DB_NAME"

	EnvRedisURL = "MARGINLY_REDIS_URL"

	EnvJWTSecret = "MARGINLY_JWT_SECRET"
	EnvJWTIssuer = "MARGINLY_JWT_ISSUER"

	EnvEncryptionKey    = "MARGINLY_ENCRYPTION_KEY"
	EnvOldEncryptionKey = "MARGINLY_OLD_ENCRYPTION_KEY"

	EnvStorefrontTimeout = "MARGINLY_STOREFRONT_TIMEOUT"
	EnvSyncSchedule      = "MARGINLY_SYNC_SCHEDULE"
	EnvUseSQLite         = "MARGINLY_USE_SQLITE"

	EnvGCPProjectID = "MARGINLY_GCP_PROJECT_ID"
)

// legacyDBEnvVars must all be set when no DSN is provided.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
