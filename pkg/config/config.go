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
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Inventory    InventoryConfig
	Cron         CronConfig
	RateLimit    AdminRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CATALOG_APP_ENV" required:"true"`
	Port         string `envconfig:"CATALOG_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CATALOG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CATALOG_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for the back office UI.
	CORSOrigins []string `envconfig:"CATALOG_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CATALOG_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CATALOG_DB_DSN"`
	Driver string `envconfig:"CATALOG_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CATALOG_DB_HOST"`
	Port     int    `envconfig:"CATALOG_DB_PORT" default:"5432"`
	User     string `envconfig:"CATALOG_DB_USER"`
	Password string `envconfig:"CATALOG_DB_PASSWORD"`
	Name     string `envconfig:"CATALOG_DB_NAME"`
	SSLMode  string `envconfig:"CATALOG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CATALOG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CATALOG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CATALOG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CATALOG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local sqlite dialector was requested.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CATALOG_REDIS_URL"`
	PoolSize     int           `envconfig:"CATALOG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CATALOG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CATALOG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CATALOG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CATALOG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CATALOG_AUTO_MIGRATE" default:"false"`
	// EnsureOnCreate makes variant creation create the inventory record in the same
	// request. When false only the reconcile sweep creates inventory.
	EnsureOnCreate bool `envconfig:"CATALOG_ENSURE_INVENTORY_ON_CREATE" default:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"CATALOG_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	InventoryTopic string `envconfig:"CATALOG_PUBSUB_INVENTORY_TOPIC" default:"catalog-inventory-events"`
	CatalogTopic   string `envconfig:"CATALOG_PUBSUB_CATALOG_TOPIC" default:"catalog-variant-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CATALOG_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CATALOG_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CATALOG_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"CATALOG_OUTBOX_RETENTION_DAYS" default:"30"`
}

// MaxMatrixCeiling bounds the configurable matrix ceiling. Operators may lower it, never raise it.
const MaxMatrixCeiling = 100

type InventoryConfig struct {
	LowStockThreshold     int           `envconfig:"CATALOG_INVENTORY_LOW_STOCK_THRESHOLD" default:"5"`
	MaxMatrixCombinations int           `envconfig:"CATALOG_INVENTORY_MAX_MATRIX_COMBINATIONS" default:"100"`
	AdjustMaxAttempts     int           `envconfig:"CATALOG_INVENTORY_ADJUST_MAX_ATTEMPTS" default:"5"`
	AdjustRetryBackoff    time.Duration `envconfig:"CATALOG_INVENTORY_ADJUST_RETRY_BACKOFF" default:"10ms"`
	ReconcileBatchSize    int           `envconfig:"CATALOG_INVENTORY_RECONCILE_BATCH_SIZE" default:"500"`
}

func (i InventoryConfig) validate() error {
	if i.LowStockThreshold < 0 {
		return fmt.Errorf("%s must be >= 0", EnvLowStockThreshold)
	}
	if i.MaxMatrixCombinations <= 0 || i.MaxMatrixCombinations > MaxMatrixCeiling {
		return fmt.Errorf("%s must be between 1 and %d", EnvMaxMatrixCombinations, MaxMatrixCeiling)
	}
	if i.AdjustMaxAttempts <= 0 {
		return fmt.Errorf("%s must be > 0", EnvAdjustMaxAttempts)
	}
	return nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CATALOG_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"CATALOG_CRON_LOCK_TTL" default:"10m"`
}

// AdminRateLimitConfig throttles the admin sweep endpoints. A zero limit disables it.
type AdminRateLimitConfig struct {
	Window     time.Duration `envconfig:"CATALOG_ADMIN_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit    int           `envconfig:"CATALOG_ADMIN_RATE_LIMIT_IP" default:"30"`
	ActorLimit int           `envconfig:"CATALOG_ADMIN_RATE_LIMIT_ACTOR" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	partValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if partValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
