// Package config loads process configuration from defaults, an optional
// config file, a .env file and RSYWX_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "RSYWX"

// Load strategies.
const (
	StrategyStaged     = "staged"
	StrategyConcurrent = "concurrent"
)

// Batch policies decide whether a field whose batch call failed counts as loaded.
const (
	PolicyAttempted = "attempted"
	PolicySucceeded = "succeeded"
)

// Config holds all configuration for the application.
type Config struct {
	Gateway GatewayConfig `mapstructure:"gateway"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Loader  LoaderConfig  `mapstructure:"loader"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Server  ServerConfig  `mapstructure:"server"`
	Daily   DailyConfig   `mapstructure:"daily"`
	Site    SiteConfig    `mapstructure:"site"`
	Report  ReportConfig  `mapstructure:"report"`
}

// GatewayConfig describes how to reach the remote REST API.
type GatewayConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	APIKey         string        `mapstructure:"api_key"`
	UserAgent      string        `mapstructure:"user_agent" validate:"required"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=1,lte=10"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gte=0"`
	RateLimit      float64       `mapstructure:"rate_limit" validate:"gt=0"`
	Burst          int           `mapstructure:"burst" validate:"gte=1"`
}

// CacheConfig configures the response cache layers.
type CacheConfig struct {
	MemoryMB          int           `mapstructure:"memory_mb" validate:"gte=0"`
	DefaultTTL        time.Duration `mapstructure:"default_ttl" validate:"gte=0"`
	StaleGrace        time.Duration `mapstructure:"stale_grace" validate:"gte=0"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db" validate:"gte=0"`
	CompressThreshold int           `mapstructure:"compress_threshold" validate:"gte=0"`
}

// LoaderConfig tunes the orchestrator and batch loaders.
type LoaderConfig struct {
	Strategy       string        `mapstructure:"strategy" validate:"oneof=staged concurrent"`
	WaveTimeout    time.Duration `mapstructure:"wave_timeout" validate:"gt=0"`
	MaxConcurrency int           `mapstructure:"max_concurrency" validate:"gte=1"`
	BatchPolicy    string        `mapstructure:"batch_policy" validate:"oneof=attempted succeeded"`
	RandomCount    int           `mapstructure:"random_count" validate:"gte=1"`
	ListCount      int           `mapstructure:"list_count" validate:"gte=1"`
	VisitDays      int           `mapstructure:"visit_days" validate:"gte=1"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Pretty bool   `mapstructure:"pretty"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr    string `mapstructure:"addr" validate:"required"`
	Metrics bool   `mapstructure:"metrics"`
}

// DailyConfig controls the word/quote-of-the-day refresh job.
type DailyConfig struct {
	RefreshSchedule string `mapstructure:"refresh_schedule"`
}

// SiteConfig feeds the SEO helpers.
type SiteConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	URL  string `mapstructure:"url" validate:"required,url"`
}

// ReportConfig controls performance report export.
type ReportConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// Options tune Load.
type Options struct {
	// ConfigFile is an optional YAML/JSON/TOML file. Empty means none.
	ConfigFile string
	// EnvFiles are loaded with godotenv before reading the environment.
	// Missing files are ignored.
	EnvFiles []string
}

// Load builds a Config from defaults, optional files and the environment,
// then validates it.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing .env files are fine; the environment may already be set.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration produced by defaults alone, with the
// given gateway base URL. Useful for tests and library callers that do not
// want to touch the environment.
func Default(baseURL string) *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults are static and always decode.
	_ = v.Unmarshal(&cfg)
	cfg.Gateway.BaseURL = baseURL
	return &cfg
}

// Validate checks struct tags plus the rules tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if cfg.Loader.MaxConcurrency > 0 && cfg.Gateway.Burst > cfg.Loader.MaxConcurrency*4 {
		return fmt.Errorf("gateway.burst (%d) must not exceed 4x loader.max_concurrency (%d)",
			cfg.Gateway.Burst, cfg.Loader.MaxConcurrency)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.base_url", "https://api.rsywx.com")
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.user_agent", "rsywx-client/0.1.0")
	v.SetDefault("gateway.timeout", "10s")
	v.SetDefault("gateway.max_retries", 3)
	v.SetDefault("gateway.initial_backoff", "500ms")
	v.SetDefault("gateway.rate_limit", 10.0)
	v.SetDefault("gateway.burst", 5)

	v.SetDefault("cache.memory_mb", 16)
	v.SetDefault("cache.default_ttl", "60s")
	v.SetDefault("cache.stale_grace", "10m")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.compress_threshold", 1024)

	v.SetDefault("loader.strategy", StrategyStaged)
	v.SetDefault("loader.wave_timeout", "30s")
	v.SetDefault("loader.max_concurrency", 6)
	v.SetDefault("loader.batch_policy", PolicyAttempted)
	v.SetDefault("loader.random_count", 4)
	v.SetDefault("loader.list_count", 5)
	v.SetDefault("loader.visit_days", 30)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.pretty", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics", true)

	v.SetDefault("daily.refresh_schedule", "5 0 * * *")

	v.SetDefault("site.name", "任氏有无轩")
	v.SetDefault("site.url", "https://rsywx.net")

	v.SetDefault("report.dir", "reports")
}

// bindEnvVars binds the short, historical variable names in addition to the
// RSYWX_SECTION_KEY names AutomaticEnv resolves.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("gateway.base_url", "RSYWX_API_BASE", "NUXT_PUBLIC_API_BASE")
	_ = v.BindEnv("gateway.api_key", "RSYWX_API_KEY", "NUXT_API_KEY")
	_ = v.BindEnv("site.url", "RSYWX_SITE_URL", "NUXT_PUBLIC_SITE_URL")
	_ = v.BindEnv("logger.level", "RSYWX_LOG_LEVEL")
	_ = v.BindEnv("cache.redis_addr", "RSYWX_REDIS_ADDR", "REDIS_URL")
	_ = v.BindEnv("server.addr", "RSYWX_ADDR")
}
