package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvUserID, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if Exists() {
		t.Error("Exists() = true before Save")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvUserID, "")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://score.example.com"
	cfg.API.UserID = "u-42"
	cfg.Score.Scale = 1000
	cfg.Score.FallbackScore = 500
	cfg.Score.TierStrategy = "breakpoints"
	cfg.Profile.Name = "Ada"
	cfg.Appearance.Theme = "banking-dark"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	info, err := os.Stat(filepath.Join(dir, "fintree", "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config mode = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvUserID, "")

	path := filepath.Join(dir, "fintree", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[score]\nscale = 1000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Score.Scale != 1000 {
		t.Errorf("Scale = %d, want 1000", cfg.Score.Scale)
	}
	if cfg.Score.TierCount != 10 || cfg.Appearance.Theme != "flexoki-dark" {
		t.Errorf("defaults lost: tier_count=%d theme=%q", cfg.Score.TierCount, cfg.Appearance.Theme)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "fintree", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[score\nscale ="), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Fatalf("Load error = %v, want parsing config error", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvUserID, "env-user")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://env.example.com" || cfg.API.UserID != "env-user" {
		t.Errorf("env not applied: %+v", cfg.API)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "localhost" }, "api.base_url"},
		{"empty user", func(c *Config) { c.API.UserID = " " }, "api.user_id"},
		{"bad scale", func(c *Config) { c.Score.Scale = 10 }, "score.scale"},
		{"zero tiers", func(c *Config) { c.Score.TierCount = 0 }, "score.tier_count"},
		{"unknown strategy", func(c *Config) { c.Score.TierStrategy = "log" }, "score.tier_strategy"},
		{"fallback above scale", func(c *Config) { c.Score.FallbackScore = 101 }, "score.fallback_score"},
		{"refresh too fast", func(c *Config) { c.TUI.RefreshIntervalSec = 1 }, "tui.refresh_interval_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}

	// breakpoints ignores tier_count
	cfg := DefaultConfig()
	cfg.Score.TierStrategy = "breakpoints"
	cfg.Score.TierCount = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("breakpoints with zero tier_count: %v", err)
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.TimeoutSec = 0
	cfg.TUI.RefreshIntervalSec = 2
	cfg.Daemon.IntervalSec = 45

	if got := cfg.Timeout(); got != 10*time.Second {
		t.Errorf("Timeout() = %v", got)
	}
	if got := cfg.RefreshInterval(); got != 5*time.Second {
		t.Errorf("RefreshInterval() = %v", got)
	}
	if got := cfg.PollInterval(); got != 45*time.Second {
		t.Errorf("PollInterval() = %v", got)
	}
}
