package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	BaseURL          string        `mapstructure:"base_url"`
	APIPort          int           `mapstructure:"api_port"`
	RequestTimeoutMs int64         `mapstructure:"request_timeout_ms"`
	RequestTimeout   time.Duration `mapstructure:"-"`

	SuitesFile string `mapstructure:"suites_file"`
	SinksFile  string `mapstructure:"sinks_file"`

	EvalIntervalSeconds int64         `mapstructure:"eval_interval"`
	EvalInterval        time.Duration `mapstructure:"-"`

	SessionStoreType string `mapstructure:"session_store_type"`
	SessionStorePath string `mapstructure:"session_store_path"`

	CacheType            string        `mapstructure:"cache_type"`
	CachePath            string        `mapstructure:"cache_path"`
	CacheTTLSeconds      int64         `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds  int64         `mapstructure:"cache_cleanup_interval_seconds"`
	CacheTTL             time.Duration `mapstructure:"-"`
	CacheCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "promptrepo-evald")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "http://localhost:3000")
	v.SetDefault("api_port", 0)
	v.SetDefault("request_timeout_ms", int64(180_000))
	v.SetDefault("suites_file", "./configs/suites.yaml")
	v.SetDefault("sinks_file", "./configs/sinks.yaml")
	v.SetDefault("eval_interval", 900) // seconds
	v.SetDefault("session_store_type", "bbolt")
	v.SetDefault("session_store_path", "./data/session.db")
	v.SetDefault("cache_type", "bbolt")
	v.SetDefault("cache_path", "./data/cache.db")
	v.SetDefault("cache_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("cache_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base_url must not be empty")
	}
	if cfg.APIPort < 0 || cfg.APIPort > 65535 {
		return nil, fmt.Errorf("invalid api_port %d", cfg.APIPort)
	}
	if cfg.APIPort > 0 {
		cfg.BaseURL = fmt.Sprintf("%s:%d", strings.TrimRight(cfg.BaseURL, "/"), cfg.APIPort)
	}

	if cfg.RequestTimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_ms (must be positive milliseconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMs) * time.Millisecond

	if cfg.EvalIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid eval_interval (must be positive seconds)")
	}
	cfg.EvalInterval = time.Duration(cfg.EvalIntervalSeconds) * time.Second

	if cfg.CacheTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid cache_ttl_seconds (must be positive seconds)")
	}
	if cfg.CacheCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid cache_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.CacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
	cfg.CacheCleanupInterval = time.Duration(cfg.CacheCleanupSeconds) * time.Second

	return &cfg, nil
}
