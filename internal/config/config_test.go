package config

import (
	"testing"
	"time"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Strategy != model.StrategyHybrid {
		t.Errorf("default Strategy = %q, want %q", cfg.Strategy, model.StrategyHybrid)
	}
	if cfg.WindowDays != 30 {
		t.Errorf("default WindowDays = %d, want 30", cfg.WindowDays)
	}
	if cfg.MaxQuota != 9000 {
		t.Errorf("default MaxQuota = %d, want 9000", cfg.MaxQuota)
	}
	if cfg.BackoffBase != 2*time.Second {
		t.Errorf("default BackoffBase = %s, want 2s", cfg.BackoffBase)
	}
	if cfg.CollectInterval != 0 {
		t.Errorf("default CollectInterval = %s, want 0", cfg.CollectInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COLLECT_STRATEGY", model.StrategyRecentCount)
	t.Setenv("COLLECT_RECENT_N", "10")
	t.Setenv("COLLECT_BACKOFF_BASE", "500ms")
	t.Setenv("COLLECT_WINDOW_START", "2026-01-01T00:00:00Z")

	cfg := Load()

	if cfg.Strategy != model.StrategyRecentCount {
		t.Errorf("Strategy = %q, want %q", cfg.Strategy, model.StrategyRecentCount)
	}
	if cfg.RecentN != 10 {
		t.Errorf("RecentN = %d, want 10", cfg.RecentN)
	}
	if cfg.BackoffBase != 500*time.Millisecond {
		t.Errorf("BackoffBase = %s, want 500ms", cfg.BackoffBase)
	}
	if cfg.WindowStart == nil || !cfg.WindowStart.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("WindowStart = %v, want 2026-01-01T00:00:00Z", cfg.WindowStart)
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("COLLECT_RECENT_N", "not-a-number")
	t.Setenv("COLLECT_RUN_TIMEOUT", "soon")
	t.Setenv("COLLECT_WINDOW_END", "yesterday")

	cfg := Load()

	if cfg.RecentN != 25 {
		t.Errorf("RecentN = %d, want fallback 25", cfg.RecentN)
	}
	if cfg.RunTimeout != 30*time.Minute {
		t.Errorf("RunTimeout = %s, want fallback 30m", cfg.RunTimeout)
	}
	if cfg.WindowEnd != nil {
		t.Errorf("WindowEnd = %v, want nil for malformed value", cfg.WindowEnd)
	}
}

func TestValidate(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"unknown strategy", func(c *Config) { c.Strategy = "newest_first" }, true},
		{"zero quota", func(c *Config) { c.MaxQuota = 0 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"zero backoff", func(c *Config) { c.BackoffBase = 0 }, true},
		{"inverted window", func(c *Config) { c.WindowStart = &start; c.WindowEnd = &end }, true},
		{"zero window days without explicit window", func(c *Config) { c.WindowDays = 0 }, true},
		{"zero window days with explicit start", func(c *Config) { c.WindowDays = 0; c.WindowStart = &end }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
