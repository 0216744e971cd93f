package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Licensing.Validate(); err != nil {
		return fmt.Errorf("licensing config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Waiter.Validate(); err != nil {
		return fmt.Errorf("waiter config: %w", err)
	}

	if err := c.Scraper.Validate(); err != nil {
		return fmt.Errorf("scraper config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}

	if s.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}

	if s.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}

	if s.RateLimit > 0 && s.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive when rate_limit is set")
	}

	return nil
}

func (l *LicensingConfig) Validate() error {
	if l.DenyMarker == "" {
		return fmt.Errorf("deny_marker cannot be empty")
	}

	if l.ErrorDetailsHTTPRequests < 0 {
		return fmt.Errorf("error_details_http_requests cannot be negative")
	}

	return nil
}

func (q *QueueConfig) Validate() error {
	switch q.Backend {
	case "memory":
		return nil
	case "redis":
		if err := q.Redis.Validate(); err != nil {
			return fmt.Errorf("redis config: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("queue backend must be 'memory' or 'redis', got %q", q.Backend)
	}
}

func (r *RedisConfig) Validate() error {
	if len(r.Addresses) == 0 {
		return fmt.Errorf("at least one Redis address is required")
	}

	if r.DB < 0 {
		return fmt.Errorf("invalid Redis database number: %d", r.DB)
	}

	if r.Key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	if r.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive")
	}

	if r.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns cannot be negative")
	}

	if r.MinIdleConns > r.PoolSize {
		return fmt.Errorf("min_idle_conns cannot be greater than pool_size")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", m.Port)
		}

		if m.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}

func (w *WaiterConfig) Validate() error {
	if w.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	if w.Timeout < w.Interval {
		return fmt.Errorf("timeout (%s) cannot be shorter than interval (%s)", w.Timeout, w.Interval)
	}

	return nil
}

func (s *ScraperConfig) Validate() error {
	if s.AdbPath == "" {
		return fmt.Errorf("adb_path cannot be empty")
	}

	if len(s.Markers) == 0 {
		return fmt.Errorf("at least one marker is required")
	}

	if s.ClientTag == "" {
		return fmt.Errorf("client_tag cannot be empty")
	}

	return nil
}
