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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"LOGASHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"LOGASHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOGASHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOGASHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOGASHOP_DB_DSN"`
	Driver string `envconfig:"LOGASHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOGASHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"LOGASHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOGASHOP_DB_USER"`
	LegacyPassword string `envconfig:"LOGASHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOGASHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOGASHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOGASHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOGASHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOGASHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOGASHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOGASHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOGASHOP_REDIS_ADDR"`
	Password     string        `envconfig:"LOGASHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOGASHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOGASHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOGASHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOGASHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOGASHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOGASHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LOGASHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LOGASHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LOGASHOP_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	IdempotencyTTL    time.Duration `envconfig:"LOGASHOP_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	LowStockThreshold int           `envconfig:"LOGASHOP_LOW_STOCK_THRESHOLD" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOGASHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOGASHOP_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOGASHOP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LOGASHOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOGASHOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"LOGASHOP_PUBSUB_ORDERS_TOPIC" default:"ls-order-events"`
	OrdersSubscription string `envconfig:"LOGASHOP_PUBSUB_ORDERS_SUBSCRIPTION"`
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
