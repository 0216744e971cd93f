package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Licensing LicensingConfig `mapstructure:"licensing"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Waiter    WaiterConfig    `mapstructure:"waiter"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
}

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	Port            int           `mapstructure:"port"` // 0 picks an ephemeral port
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`

	// Requests per second accepted before answering 429. 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	// Exposes /api/v1 control endpoints for host-side harnesses.
	ControlAPI bool `mapstructure:"control_api"`
}

type LicensingConfig struct {
	DenyMarker               string `mapstructure:"deny_marker"`
	ErrorDetailsEnabled      bool   `mapstructure:"error_details_enabled"`
	ErrorDetailsHTTPRequests int    `mapstructure:"error_details_http_requests"`
}

type QueueConfig struct {
	Backend string      `mapstructure:"backend"` // memory or redis
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addresses    []string      `mapstructure:"addresses"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Key          string        `mapstructure:"key"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`     // json or text
	Output     string `mapstructure:"output"`     // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"`   // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type WaiterConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ScraperConfig struct {
	AdbPath   string   `mapstructure:"adb_path"`
	Serial    string   `mapstructure:"serial"`
	Markers   []string `mapstructure:"markers"`
	ClientTag string   `mapstructure:"client_tag"`
}

// Load reads configPath (if non-empty) on top of the defaults and applies
// MOCKINGRESS_* environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MOCKINGRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration a test gets when it does not load a file.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults are static; failing here is a programming error
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_addr", "127.0.0.1")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_body_bytes", 4<<20)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.control_api", true)

	// Licensing defaults
	v.SetDefault("licensing.deny_marker", "nonExistingKey")
	v.SetDefault("licensing.error_details_enabled", true)
	v.SetDefault("licensing.error_details_http_requests", 10)

	// Queue defaults
	v.SetDefault("queue.backend", "memory")
	v.SetDefault("queue.redis.addresses", []string{"localhost:6379"})
	v.SetDefault("queue.redis.db", 0)
	v.SetDefault("queue.redis.key", "mockingress:requests")
	v.SetDefault("queue.redis.max_retries", 3)
	v.SetDefault("queue.redis.dial_timeout", "5s")
	v.SetDefault("queue.redis.read_timeout", "3s")
	v.SetDefault("queue.redis.write_timeout", "3s")
	v.SetDefault("queue.redis.pool_size", 10)
	v.SetDefault("queue.redis.min_idle_conns", 1)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9090)

	// Waiter defaults
	v.SetDefault("waiter.interval", "100ms")
	v.SetDefault("waiter.timeout", "15s")

	// Scraper defaults
	v.SetDefault("scraper.adb_path", "adb")
	v.SetDefault("scraper.serial", "")
	v.SetDefault("scraper.markers", []string{
		"Initialized Analytics HTTP Backend",
		"Analytics session started",
	})
	v.SetDefault("scraper.client_tag", "AnalyticsHttpClient")
}
