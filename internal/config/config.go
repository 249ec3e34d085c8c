package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP bind and self-addressing settings.
type Server struct {
	Bind       string `toml:"bind"`
	BaseURL    string `toml:"base_url"`
	CORSOrigin string `toml:"cors_origin"`
	DataDir    string `toml:"data_dir"`
}

// Replicate contains settings for the video generation provider.
type Replicate struct {
	APIToken       string `toml:"api_token"`
	BaseURL        string `toml:"base_url"`
	ImageVersion   string `toml:"image_version"`
	VideoVersion   string `toml:"video_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// Instagram contains fallback credentials and client settings for publishing.
type Instagram struct {
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxVideoBytes  int64  `toml:"max_video_bytes"`
}

// Scheduler contains settings for deferred job execution.
type Scheduler struct {
	MaxConcurrent int    `toml:"max_concurrent"`
	Pipeline      string `toml:"pipeline"`
}

// History contains settings for the optional job history store.
type History struct {
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn"`
	RetentionDays int    `toml:"retention_days"`
	SweepSchedule string `toml:"sweep_schedule"`
}

// Tracing contains settings for span export.
type Tracing struct {
	Exporter    string  `toml:"exporter"`
	File        string  `toml:"file"`
	ServiceName string  `toml:"service_name"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for reelcast.
type Config struct {
	Server    Server    `toml:"server"`
	Replicate Replicate `toml:"replicate"`
	Instagram Instagram `toml:"instagram"`
	Scheduler Scheduler `toml:"scheduler"`
	History   History   `toml:"history"`
	Tracing   Tracing   `toml:"tracing"`
	Logging   Logging   `toml:"logging"`
}

// HasAmbientCredentials reports whether fallback Instagram credentials are set.
func (c *Config) HasAmbientCredentials() bool {
	return c.Instagram.Username != "" && c.Instagram.Password != ""
}

// ReplicateTimeout returns the wall-clock bound for one generation.
func (c *Config) ReplicateTimeout() time.Duration {
	return time.Duration(c.Replicate.TimeoutSeconds) * time.Second
}

// InstagramTimeout returns the wall-clock bound for one publish.
func (c *Config) InstagramTimeout() time.Duration {
	return time.Duration(c.Instagram.TimeoutSeconds) * time.Second
}

// PollInterval returns the delay between prediction status checks.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Replicate.PollIntervalMS) * time.Millisecond
}

// HistorySweepEnabled reports whether finished jobs should be pruned on a schedule.
// A retention of zero keeps history forever.
func (c *Config) HistorySweepEnabled() bool {
	return c.History.Driver != HistoryDriverNone && c.History.RetentionDays > 0
}

// LockPath returns the instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Server.DataDir, "reelcast.lock")
}

// SampleConfig returns the annotated sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelcast/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults and environment overlays apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the sample configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o600)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
