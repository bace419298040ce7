package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/durabrake/findash/internal/period"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv             string        `envconfig:"APP_ENV" default:"development"`
	AppAddr            string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout  time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"20s"`
	AppShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile   string `envconfig:"LOG_FILE"`

	DataDir       string `envconfig:"DATA_DIR" default:"generated"`
	DefaultPeriod string `envconfig:"DEFAULT_PERIOD"`
	PolicyFile    string `envconfig:"POLICY_FILE"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"6h"`

	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	CSRFSecret string        `envconfig:"CSRF_SECRET" required:"true"`

	DashboardUsername     string `envconfig:"DASHBOARD_USERNAME" default:"admin"`
	DashboardPasswordHash string `envconfig:"DASHBOARD_PASSWORD_HASH"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`

	WarmupCron        string `envconfig:"WARMUP_CRON" default:"*/30 * * * *"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"4"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR"`
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is applied first outside test mode; variables already
// set in the environment win.
func LoadConfig() (*Config, error) {
	if !InTestMode() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if _, err := cfg.DefaultPeriodKey(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultPeriodKey parses DEFAULT_PERIOD. An empty value yields the zero key.
func (c *Config) DefaultPeriodKey() (period.Key, error) {
	if c == nil || c.DefaultPeriod == "" {
		return period.Key{}, nil
	}
	key, err := period.ParseKey(c.DefaultPeriod)
	if err != nil {
		return period.Key{}, fmt.Errorf("DEFAULT_PERIOD: %w", err)
	}
	return key, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
