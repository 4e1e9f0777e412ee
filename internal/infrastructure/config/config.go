// Package config loads the service settings from config.toml, a local .env
// file and COURTAGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config.toml keys
const EnvPrefix = "COURTAGE"

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Certificate CertificateConfig `mapstructure:"certificate"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Printing    PrintingConfig    `mapstructure:"printing"`
	Swagger     SwaggerConfig     `mapstructure:"swagger"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port" validate:"numeric"`
	// DefaultTenantID is the tenant of single-tenant deployments and the CLI
	DefaultTenantID string `mapstructure:"default_tenant_id" validate:"uuid"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

// DatabaseConfig is the PostgreSQL connection. Lifetimes are in minutes.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time" validate:"gte=0"`
}

// DSN is the postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig signs API tokens. MaxLoginAttempts and LockDuration drive the
// account lockout.
type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	Issuer                 string        `mapstructure:"issuer"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration" validate:"gt=0"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration" validate:"gtfield=AccessTokenExpiration"`
	MaxRefreshCount        int           `mapstructure:"max_refresh_count" validate:"gte=0"`
	MaxLoginAttempts       int           `mapstructure:"max_login_attempts" validate:"gt=0"`
	LockDuration           time.Duration `mapstructure:"lock_duration" validate:"gt=0"`
}

type HTTPConfig struct {
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes     int           `mapstructure:"max_header_bytes" validate:"gt=0"`
	MaxBodySize        int64         `mapstructure:"max_body_size" validate:"gt=0"`
	RateLimitEnabled   bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests" validate:"gt=0"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window" validate:"gt=0"`
	IdempotencyEnabled bool          `mapstructure:"idempotency_enabled"`
	IdempotencyTTL     time.Duration `mapstructure:"idempotency_ttl"`
	CORSAllowOrigins   []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods   []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders   []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies     []string      `mapstructure:"trusted_proxies"`
}

// StorageConfig targets AWS S3 when Endpoint is empty, MinIO otherwise
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKeyID       string        `mapstructure:"access_key_id"`
	SecretAccessKey   string        `mapstructure:"secret_access_key"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	UploadURLExpiry   time.Duration `mapstructure:"upload_url_expiry"`
	DownloadURLExpiry time.Duration `mapstructure:"download_url_expiry"`
}

// CertificateConfig reaches the certificate-issuing platform
type CertificateConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec" validate:"gte=0"`
	Burst          int           `mapstructure:"burst" validate:"gte=1"`
	// TokenCacheKey is the Redis key holding the platform bearer token
	TokenCacheKey string `mapstructure:"token_cache_key"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	ClientID     string        `mapstructure:"client_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// SchedulerConfig drives the contract lifecycle sweep
type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Interval      time.Duration `mapstructure:"interval" validate:"gt=0"`
	BatchSize     int           `mapstructure:"batch_size" validate:"gt=0"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"gte=0"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio" validate:"gte=0,lte=1"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
	ProfilingEnabled  bool          `mapstructure:"profiling_enabled"`
	PyroscopeURL      string        `mapstructure:"pyroscope_url"`
}

// PrintingConfig drives the headless Chrome used for PDF exports. An empty
// ChromePath lets chromedp find a local browser.
type PrintingConfig struct {
	ChromePath  string        `mapstructure:"chrome_path"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxParallel int           `mapstructure:"max_parallel" validate:"gt=0"`
	PaperSize   string        `mapstructure:"paper_size"`
	Landscape   bool          `mapstructure:"landscape"`
}

// SwaggerConfig guards /swagger. AllowedIPs takes addresses or CIDR ranges.
type SwaggerConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	RequireAuth bool     `mapstructure:"require_auth"`
	AllowedIPs  []string `mapstructure:"allowed_ips"`
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// defaults lists every key. A key viper does not know is never read from
// the environment, so keys without a real default are listed with their
// zero value.
var defaults = map[string]any{
	"app.name":              "courtage-backend",
	"app.env":               "development",
	"app.port":              "8080",
	"app.default_tenant_id": "00000000-0000-0000-0000-000000000001",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "courtage",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                   "",
	"jwt.refresh_secret":           "",
	"jwt.issuer":                   "courtage-backend",
	"jwt.access_token_expiration":  15 * time.Minute,
	"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
	"jwt.max_refresh_count":        10,
	"jwt.max_login_attempts":       5,
	"jwt.lock_duration":            15 * time.Minute,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       60 * time.Second,
	"http.idle_timeout":        60 * time.Second,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       10 << 20,
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.idempotency_enabled": false,
	"http.idempotency_ttl":     24 * time.Hour,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID", "X-Tenant-ID", "Idempotency-Key"},
	"http.trusted_proxies":     []string{},

	"storage.enabled":             false,
	"storage.endpoint":            "",
	"storage.region":              "us-east-1",
	"storage.bucket":              "courtage",
	"storage.access_key_id":       "",
	"storage.secret_access_key":   "",
	"storage.use_path_style":      false,
	"storage.upload_url_expiry":   15 * time.Minute,
	"storage.download_url_expiry": time.Hour,

	"certificate.enabled":          false,
	"certificate.base_url":         "",
	"certificate.username":         "",
	"certificate.password":         "",
	"certificate.timeout":          30 * time.Second,
	"certificate.requests_per_sec": 2.0,
	"certificate.burst":            4,
	"certificate.token_cache_key":  "courtage:certificate:token",

	"kafka.enabled":       false,
	"kafka.brokers":       []string{},
	"kafka.topic":         "courtage.domain-events",
	"kafka.client_id":     "",
	"kafka.batch_timeout": 100 * time.Millisecond,

	"scheduler.enabled":        false,
	"scheduler.interval":       time.Hour,
	"scheduler.batch_size":     200,
	"scheduler.job_timeout":    10 * time.Minute,
	"scheduler.retry_attempts": 3,
	"scheduler.retry_delay":    time.Minute,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "courtage-backend",
	"telemetry.insecure":                false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.pyroscope_url":           "http://localhost:4040",

	"printing.chrome_path":  "",
	"printing.timeout":      30 * time.Second,
	"printing.max_parallel": 2,
	"printing.paper_size":   "A4",
	"printing.landscape":    false,

	"swagger.enabled":      false,
	"swagger.require_auth": false,
	"swagger.allowed_ips":  []string{},
}

// Load reads ./config.toml, ./config/config.toml or /etc/courtage/config.toml
// when one exists. Environment variables win over the file, which wins over
// the built-in defaults.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads path, which must exist, or searches the default locations
// when path is empty
func LoadFrom(path string) (*Config, error) {
	// .env never overrides a variable already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		for _, dir := range []string{".", "./config", "/etc/courtage"} {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = cfg.App.Name
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if err := structRules().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fieldError(fe))
		}
	}

	check := func(failed bool, msg string) {
		if failed {
			errs = append(errs, errors.New(msg))
		}
	}
	check(c.Certificate.Enabled && c.Certificate.BaseURL == "", "certificate.base_url is required when the certificate platform is enabled")
	check(c.Kafka.Enabled && len(c.Kafka.Brokers) == 0, "kafka.brokers is required when kafka is enabled")
	check(c.Storage.Enabled && c.Storage.Bucket == "", "storage.bucket is required when storage is enabled")

	if c.IsProduction() {
		check(c.JWT.Secret == "", "jwt.secret is required in production")
		check(c.JWT.Secret != "" && len(c.JWT.Secret) < 32, "jwt.secret must be at least 32 characters in production")
		check(c.Database.Password == "", "database.password is required in production")
		check(c.Database.SSLMode == "disable", "database.sslmode cannot be disable in production")
		for _, origin := range c.HTTP.CORSAllowOrigins {
			check(origin == "*", "http.cors_allow_origins cannot contain * in production")
		}
		check(c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
		check(c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0,
			"swagger must be disabled, require authentication or restrict ips in production")
	}
	return errors.Join(errs...)
}

// structRules names fields after their config keys
func structRules() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// fieldError renders a failed rule as "<section>.<key> <reason>"
func fieldError(fe validator.FieldError) error {
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	var reason string
	switch fe.Tag() {
	case "gte":
		if fe.Param() == "0" {
			reason = "cannot be negative"
		} else {
			reason = "must be at least " + fe.Param()
		}
	case "gt":
		reason = "must be greater than " + fe.Param()
	case "lte":
		reason = "must be at most " + fe.Param()
	case "ltefield":
		reason = "cannot exceed " + strings.ToLower(fe.Param())
	case "gtfield":
		reason = "must be longer than " + strings.ToLower(fe.Param())
	case "oneof":
		reason = "must be one of " + fe.Param()
	default:
		reason = fmt.Sprintf("is not a valid %s value", fe.Tag())
	}
	return fmt.Errorf("%s %s (got %v)", key, reason, fe.Value())
}
