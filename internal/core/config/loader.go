package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults; environment variables are expanded in the file content and
// fill secrets that were left empty.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(cfg)
	// Fields the file set to zero fall back again.
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if cfg.Hypixel.APIKey == "" {
		cfg.Hypixel.APIKey = os.Getenv("HYPIXEL_API_KEY")
	}
	if cfg.Proxy.Host == "" {
		cfg.Proxy.Host = os.Getenv("PROXY_HOST")
	}
	if cfg.Proxy.Username == "" {
		cfg.Proxy.Username = os.Getenv("PROXY_USERNAME")
	}
	if cfg.Proxy.Password == "" {
		cfg.Proxy.Password = os.Getenv("PROXY_PASSWORD")
	}
	if cfg.RetryQueue.Redis.URL == "" {
		cfg.RetryQueue.Redis.URL = os.Getenv("REDIS_URL")
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Paths.SourceDir == "" {
		cfg.Paths.SourceDir = "cookies"
	}
	if cfg.Paths.ResultsDir == "" {
		cfg.Paths.ResultsDir = "results"
	}

	if cfg.Mojang.BaseURL == "" {
		cfg.Mojang.BaseURL = "https://api.mojang.com"
	}
	if cfg.Mojang.Timeout == 0 {
		cfg.Mojang.Timeout = 10 * time.Second
	}
	if cfg.Hypixel.BaseURL == "" {
		cfg.Hypixel.BaseURL = "https://api.hypixel.net"
	}
	if cfg.Hypixel.Timeout == 0 {
		cfg.Hypixel.Timeout = 10 * time.Second
	}

	if cfg.Pacing.CheckDelay == 0 {
		cfg.Pacing.CheckDelay = 300 * time.Millisecond
	}
	if cfg.Pacing.RecheckDelay == 0 {
		cfg.Pacing.RecheckDelay = 500 * time.Millisecond
	}
	if cfg.Pacing.RateLimitPause == 0 {
		cfg.Pacing.RateLimitPause = 2 * time.Second
	}
	if cfg.Pacing.RoundDelay == 0 {
		cfg.Pacing.RoundDelay = 5 * time.Second
	}
	if cfg.Pacing.MaxRounds == 0 {
		cfg.Pacing.MaxRounds = 3
	}
	if cfg.Pacing.SummaryEvery == 0 {
		cfg.Pacing.SummaryEvery = 5
	}

	if cfg.RetryQueue.Backend == "" {
		cfg.RetryQueue.Backend = BackendMemory
	}
	cfg.RetryQueue.Backend = strings.ToLower(cfg.RetryQueue.Backend)

	if cfg.Proxy.Scheme == "" {
		cfg.Proxy.Scheme = "http"
	}
	if cfg.Proxy.Port == 0 {
		cfg.Proxy.Port = 3010
	}
	if cfg.Proxy.IPServiceURL == "" {
		cfg.Proxy.IPServiceURL = "https://api.ipify.org"
	}
	if cfg.Proxy.Timeout == 0 {
		cfg.Proxy.Timeout = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate rejects configurations the checker cannot run with.
func (c *AppConfig) Validate() error {
	if c.Pacing.MaxRounds < 0 {
		return fmt.Errorf("pacing.max_rounds must be >= 0, got %d", c.Pacing.MaxRounds)
	}
	if c.Pacing.SummaryEvery < 0 {
		return fmt.Errorf("pacing.summary_every must be >= 0, got %d", c.Pacing.SummaryEvery)
	}
	switch c.RetryQueue.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.RetryQueue.Redis.URL == "" {
			return errors.New("retry_queue.redis.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown retry_queue.backend %q", c.RetryQueue.Backend)
	}
	switch c.Database.Driver {
	case "", "pgx", "postgres":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	return nil
}

// ValidateProxy checks the settings only the IP fetcher needs.
func (c *AppConfig) ValidateProxy() error {
	switch c.Proxy.Scheme {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("unsupported proxy.scheme %q", c.Proxy.Scheme)
	}
	if strings.TrimSpace(c.Proxy.Host) == "" {
		return errors.New("proxy.host is required")
	}
	if c.Proxy.Port <= 0 || c.Proxy.Port > 65535 {
		return fmt.Errorf("proxy.port out of range: %d", c.Proxy.Port)
	}
	return nil
}
