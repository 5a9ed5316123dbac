package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_HYPIXEL_KEY", "abc-123")

	path := writeConfig(t, `
hypixel:
  api_key: ${TEST_HYPIXEL_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Hypixel.APIKey != "abc-123" {
		t.Errorf("Expected api key abc-123, got %s", cfg.Hypixel.APIKey)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HYPIXEL_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Paths.SourceDir != "cookies" || cfg.Paths.ResultsDir != "results" {
		t.Errorf("unexpected paths: %+v", cfg.Paths)
	}
	if cfg.Mojang.Timeout != 10*time.Second || cfg.Hypixel.Timeout != 10*time.Second {
		t.Errorf("unexpected api timeouts: %v %v", cfg.Mojang.Timeout, cfg.Hypixel.Timeout)
	}
	if cfg.Pacing.RateLimitPause != 2*time.Second {
		t.Errorf("Expected 2s rate limit pause, got %v", cfg.Pacing.RateLimitPause)
	}
	if cfg.Pacing.RoundDelay != 5*time.Second {
		t.Errorf("Expected 5s round delay, got %v", cfg.Pacing.RoundDelay)
	}
	if cfg.Pacing.MaxRounds != 3 {
		t.Errorf("Expected 3 rounds, got %d", cfg.Pacing.MaxRounds)
	}
	if cfg.Pacing.SummaryEvery != 5 {
		t.Errorf("Expected summary every 5, got %d", cfg.Pacing.SummaryEvery)
	}
	if cfg.Proxy.Timeout != 30*time.Second {
		t.Errorf("Expected 30s proxy timeout, got %v", cfg.Proxy.Timeout)
	}
	if cfg.RetryQueue.Backend != BackendMemory {
		t.Errorf("Expected memory backend, got %s", cfg.RetryQueue.Backend)
	}
}

func TestLoad_SecretsFromEnv(t *testing.T) {
	t.Setenv("HYPIXEL_API_KEY", "env-key")
	t.Setenv("PROXY_USERNAME", "user")
	t.Setenv("PROXY_PASSWORD", "pass")

	cfg, err := Load(writeConfig(t, "paths:\n  source_dir: in\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Hypixel.APIKey != "env-key" {
		t.Errorf("Expected env-key, got %s", cfg.Hypixel.APIKey)
	}
	if cfg.Proxy.Username != "user" || cfg.Proxy.Password != "pass" {
		t.Errorf("unexpected proxy credentials: %+v", cfg.Proxy)
	}
	if cfg.Paths.SourceDir != "in" {
		t.Errorf("Expected source dir in, got %s", cfg.Paths.SourceDir)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative rounds", "pacing:\n  max_rounds: -1\n"},
		{"unknown backend", "retry_queue:\n  backend: kafka\n"},
		{"redis without url", "retry_queue:\n  backend: redis\n"},
		{"unknown driver", "database:\n  driver: mysql\n"},
	}

	t.Setenv("REDIS_URL", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestValidateProxy(t *testing.T) {
	t.Setenv("PROXY_HOST", "")
	cfg := Default()
	if err := cfg.ValidateProxy(); err == nil {
		t.Errorf("expected error for missing proxy host")
	}

	cfg.Proxy.Host = "proxy.example.com"
	if err := cfg.ValidateProxy(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Proxy.Scheme = "ftp"
	if err := cfg.ValidateProxy(); err == nil {
		t.Errorf("expected error for ftp scheme")
	}
}

func TestLoad_ZeroValuesFallBack(t *testing.T) {
	cfg, err := Load(writeConfig(t, "pacing:\n  max_rounds: 0\n  round_delay: 0s\nproxy:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Pacing.MaxRounds != 3 || cfg.Pacing.RoundDelay != 5*time.Second {
		t.Errorf("expected defaults for zeroed pacing, got %+v", cfg.Pacing)
	}
	if cfg.Proxy.Port != 8080 || cfg.Proxy.Scheme != "http" {
		t.Errorf("unexpected proxy config: %+v", cfg.Proxy)
	}
}
