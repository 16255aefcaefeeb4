package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the file.
const (
	EnvAPIURL = "FINTREE_API_URL"
	EnvUserID = "FINTREE_USER_ID"
)

// Config holds all fintree configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Score      ScoreConfig      `toml:"score"`
	Profile    ProfileConfig    `toml:"profile"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Log        LogConfig        `toml:"log"`
}

// APIConfig points at the scoring service.
type APIConfig struct {
	BaseURL    string `toml:"base_url"`
	UserID     string `toml:"user_id"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// ScoreConfig controls how raw scores become a gauge.
type ScoreConfig struct {
	Scale              int     `toml:"scale"`
	FallbackScore      float64 `toml:"fallback_score"`
	FallbackSuggestion string  `toml:"fallback_suggestion"`
	TierCount          int     `toml:"tier_count"`
	TierStrategy       string  `toml:"tier_strategy"`
}

// ProfileConfig is what the dashboard header shows.
type ProfileConfig struct {
	Name      string `toml:"name"`
	Greeting  string `toml:"greeting"`
	AvatarURL string `toml:"avatar_url,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DaemonConfig holds the polling daemon settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// LogConfig selects the log level and an optional log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			UserID:     "demo",
			TimeoutSec: 10,
		},
		Score: ScoreConfig{
			Scale:              100,
			FallbackScore:      50,
			FallbackSuggestion: "Track your spending this week and set aside a small amount for savings.",
			TierCount:          10,
			TierStrategy:       "proportional",
		},
		Profile: ProfileConfig{
			Greeting: "Welcome back",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        false,
			RefreshIntervalSec: 60,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSec:  30,
			EventsBuffer: 200,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fintree")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fintree")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUserID)); v != "" {
		cfg.API.UserID = v
	}
}

// Validate reports every problem that would make the config unusable.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an http(s) URL", c.API.BaseURL))
	}
	if strings.TrimSpace(c.API.UserID) == "" {
		errs = append(errs, errors.New("api.user_id is empty"))
	}
	if c.Score.Scale != 100 && c.Score.Scale != 1000 {
		errs = append(errs, fmt.Errorf("score.scale must be 100 or 1000, got %d", c.Score.Scale))
	}
	switch c.Score.TierStrategy {
	case "", "proportional":
		if c.Score.TierCount < 1 {
			errs = append(errs, fmt.Errorf("score.tier_count must be at least 1, got %d", c.Score.TierCount))
		}
	case "breakpoints":
	default:
		errs = append(errs, fmt.Errorf("score.tier_strategy %q is not proportional or breakpoints", c.Score.TierStrategy))
	}
	if c.Score.FallbackScore < 0 || c.Score.FallbackScore > float64(c.Score.Scale) {
		errs = append(errs, fmt.Errorf("score.fallback_score %g is outside [0,%d]", c.Score.FallbackScore, c.Score.Scale))
	}
	if c.TUI.RefreshIntervalSec < 5 {
		errs = append(errs, fmt.Errorf("tui.refresh_interval_sec must be at least 5, got %d", c.TUI.RefreshIntervalSec))
	}

	return errors.Join(errs...)
}

// Timeout returns the per-request API timeout.
func (c Config) Timeout() time.Duration {
	if c.API.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// RefreshInterval returns the TUI auto-refresh interval.
func (c Config) RefreshInterval() time.Duration {
	if c.TUI.RefreshIntervalSec < 5 {
		return 5 * time.Second
	}
	return time.Duration(c.TUI.RefreshIntervalSec) * time.Second
}

// PollInterval returns the daemon polling interval.
func (c Config) PollInterval() time.Duration {
	if c.Daemon.IntervalSec < 5 {
		return 5 * time.Second
	}
	return time.Duration(c.Daemon.IntervalSec) * time.Second
}
