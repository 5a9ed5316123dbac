package config

import (
	"time"

	redisclient "github.com/vietddude/rankcheck/internal/infra/redis"
	"github.com/vietddude/rankcheck/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Paths      PathsConfig      `yaml:"paths"`
	Mojang     MojangConfig     `yaml:"mojang"`
	Hypixel    HypixelConfig    `yaml:"hypixel"`
	Pacing     PacingConfig     `yaml:"pacing"`
	RetryQueue RetryQueueConfig `yaml:"retry_queue"`
	Database   postgres.Config  `yaml:"database"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Proxy      ProxyConfig      `yaml:"proxy"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig locates the input files and the sorted output tree.
type PathsConfig struct {
	SourceDir  string `yaml:"source_dir"`
	ResultsDir string `yaml:"results_dir"`
}

// MojangConfig holds the directory service endpoints.
type MojangConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// HypixelConfig holds the stats service endpoint and key.
type HypixelConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// PacingConfig controls the process-blocking pauses and retry rounds.
type PacingConfig struct {
	CheckDelay     time.Duration `yaml:"check_delay"`
	RecheckDelay   time.Duration `yaml:"recheck_delay"`
	RateLimitPause time.Duration `yaml:"rate_limit_pause"`
	RoundDelay     time.Duration `yaml:"round_delay"`
	RoundTimeout   time.Duration `yaml:"round_timeout"` // 0 = unbounded
	MaxRounds      int           `yaml:"max_rounds"`
	SummaryEvery   int           `yaml:"summary_every"`
}

// RetryQueueConfig selects where rate-limited entries wait.
type RetryQueueConfig struct {
	Backend string             `yaml:"backend"` // memory, redis
	Redis   redisclient.Config `yaml:"redis"`
}

// MetricsConfig holds the optional prometheus listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// ProxyConfig holds the forward proxy used by the IP fetcher.
type ProxyConfig struct {
	Scheme       string        `yaml:"scheme"` // http, https, socks5
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	IPServiceURL string        `yaml:"ip_service_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
