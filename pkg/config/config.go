package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Esewa         EsewaConfig
	Khalti        KhaltiConfig
	Stripe        StripeConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Sendgrid      SendgridConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"MOUNTEMART_APP_ENV" required:"true"`
	Port         string `envconfig:"MOUNTEMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOUNTEMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOUNTEMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MOUNTEMART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MOUNTEMART_DB_DSN"`
	Driver string `envconfig:"MOUNTEMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MOUNTEMART_DB_HOST"`
	LegacyPort     int    `envconfig:"MOUNTEMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MOUNTEMART_DB_USER"`
	LegacyPassword string `envconfig:"MOUNTEMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"MOUNTEMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"MOUNTEMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOUNTEMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOUNTEMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOUNTEMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOUNTEMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MOUNTEMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MOUNTEMART_REDIS_ADDR"`
	Password     string        `envconfig:"MOUNTEMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOUNTEMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOUNTEMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOUNTEMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOUNTEMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOUNTEMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOUNTEMART_REDIS_WRITE_TIMEOUT" default:"5s"`

	TopProductsTTL time.Duration `envconfig:"MOUNTEMART_REDIS_TOP_PRODUCTS_TTL" default:"15m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MOUNTEMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MOUNTEMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MOUNTEMART_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenDays  int    `envconfig:"MOUNTEMART_JWT_REFRESH_TOKEN_DAYS" default:"30"`
}

// RefreshTokenTTL converts the configured refresh window into a duration.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MOUNTEMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MOUNTEMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MOUNTEMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MOUNTEMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MOUNTEMART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MOUNTEMART_RATE_LIMIT_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit       int           `envconfig:"MOUNTEMART_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"MOUNTEMART_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"MOUNTEMART_RATE_LIMIT_REGISTER_WINDOW" default:"15m"`
	RegisterIPLimit    int           `envconfig:"MOUNTEMART_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"MOUNTEMART_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"5"`
	CheckoutWindow     time.Duration `envconfig:"MOUNTEMART_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit    int           `envconfig:"MOUNTEMART_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MOUNTEMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MOUNTEMART_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig groups the storefront-level pricing knobs that are policy,
// not data: the COD handling surcharge, the flat cashback amount and the
// minimum order price that unlocks it, and the gateway confirmation timeout.
type CheckoutConfig struct {
	CODSurcharge        int64         `envconfig:"MOUNTEMART_COD_SURCHARGE" default:"10"`
	CashbackAmount      int64         `envconfig:"MOUNTEMART_CASHBACK_AMOUNT" default:"5"`
	CashbackMinPrice    int64         `envconfig:"MOUNTEMART_CASHBACK_MIN_PRICE" default:"100"`
	GatewayTimeout      time.Duration `envconfig:"MOUNTEMART_GATEWAY_TIMEOUT" default:"10s"`
	OrderCodeLength     int           `envconfig:"MOUNTEMART_ORDER_CODE_LENGTH" default:"7"`
	SubCategoryMaxDepth int           `envconfig:"MOUNTEMART_SUBCATEGORY_MAX_DEPTH" default:"32"`
}

type EsewaConfig struct {
	StatusURL   string `envconfig:"MOUNTEMART_ESEWA_STATUS_URL"`
	ProductCode string `envconfig:"MOUNTEMART_ESEWA_PRODUCT_CODE" default:"EPAYTEST"`
}

type KhaltiConfig struct {
	StatusURL string `envconfig:"MOUNTEMART_KHALTI_STATUS_URL"`
	SecretKey string `envconfig:"MOUNTEMART_KHALTI_SECRET_KEY"`
}

type StripeConfig struct {
	APIKey string `envconfig:"MOUNTEMART_STRIPE_API_KEY"`
	Env    string `envconfig:"MOUNTEMART_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MOUNTEMART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MOUNTEMART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MOUNTEMART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"MOUNTEMART_PUBSUB_ORDERS_TOPIC" default:"mm-order-events"`
	OrdersSubscription string `envconfig:"MOUNTEMART_PUBSUB_ORDERS_SUBSCRIPTION" default:"mm-order-events-worker"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"MOUNTEMART_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"MOUNTEMART_SENDGRID_FROM_EMAIL"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"MOUNTEMART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"MOUNTEMART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"MOUNTEMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"MOUNTEMART_OUTBOX_IDEMPOTENCY_TTL" default:"72h"`
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
