package config

// EnvPrefix is handed to envconfig; every field also carries its full name as an alt key.
const EnvPrefix = "CATALOG"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "CATALOG_APP_ENV"
	EnvPort     = "CATALOG_APP_PORT"
	EnvLogLevel = "CATALOG_LOG_LEVEL"
	EnvDBDSN    = "CATALOG_DB_DSN"
	EnvDBHost   = "CATALOG_DB_HOST"
	EnvDBUser   = "CATALOG_DB_USER"
	EnvDBName   = "CATALOG_DB_NAME"
	EnvDBDriver = "CATALOG_DB_DRIVER"
	EnvRedisURL = "CATALOG_REDIS_URL"

	EnvCORSOrigins = "CATALOG_CORS_ALLOWED_ORIGINS"

	EnvGCPProjectID         = "CATALOG_GCP_PROJECT_ID"
	EnvPubSubInventoryTopic = "CATALOG_PUBSUB_INVENTORY_TOPIC"

	EnvLowStockThreshold     = "CATALOG_INVENTORY_LOW_STOCK_THRESHOLD"
	EnvMaxMatrixCombinations = "CATALOG_INVENTORY_MAX_MATRIX_COMBINATIONS"
	EnvAdjustMaxAttempts     = "CATALOG_INVENTORY_ADJUST_MAX_ATTEMPTS"
	EnvCronInterval          = "CATALOG_CRON_INTERVAL"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
