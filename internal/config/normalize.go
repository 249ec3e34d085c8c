package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeReplicate()
	c.normalizeInstagram()
	c.normalizeScheduler()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeTracing(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

// applyEnv overlays credentials from the environment when the file leaves them empty.
func (c *Config) applyEnv() {
	overlay := func(dst *string, keys ...string) {
		if strings.TrimSpace(*dst) != "" {
			return
		}
		for _, key := range keys {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				*dst = value
				return
			}
		}
	}
	overlay(&c.Replicate.APIToken, "REPLICATE_API_TOKEN")
	overlay(&c.Instagram.Username, "INSTAGRAM_USERNAME")
	overlay(&c.Instagram.Password, "INSTAGRAM_PASSWORD")
	overlay(&c.History.DSN, "REELCAST_HISTORY_DSN")

	// Bind and base URL from the environment win over the file so containers
	// can remap ports without editing config.
	if value, ok := os.LookupEnv("REELCAST_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = value
	}
	for _, key := range []string{"REELCAST_BASE_URL", "NEXT_PUBLIC_BASE_URL"} {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			c.Server.BaseURL = value
			break
		}
	}
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(c.Server.CORSOrigin) == "" {
		c.Server.CORSOrigin = defaultCORSOrigin
	}
	if strings.TrimSpace(c.Server.DataDir) == "" {
		c.Server.DataDir = defaultDataDir
	}
	var err error
	if c.Server.DataDir, err = expandPath(c.Server.DataDir); err != nil {
		return fmt.Errorf("server.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeReplicate() {
	c.Replicate.APIToken = strings.TrimSpace(c.Replicate.APIToken)
	c.Replicate.BaseURL = strings.TrimRight(strings.TrimSpace(c.Replicate.BaseURL), "/")
	if c.Replicate.BaseURL == "" {
		c.Replicate.BaseURL = defaultReplicateBaseURL
	}
	if strings.TrimSpace(c.Replicate.ImageVersion) == "" {
		c.Replicate.ImageVersion = defaultImageVersion
	}
	if strings.TrimSpace(c.Replicate.VideoVersion) == "" {
		c.Replicate.VideoVersion = defaultVideoVersion
	}
	if c.Replicate.TimeoutSeconds <= 0 {
		c.Replicate.TimeoutSeconds = defaultProviderTimeout
	}
	if c.Replicate.PollIntervalMS <= 0 {
		c.Replicate.PollIntervalMS = defaultPollIntervalMS
	}
}

func (c *Config) normalizeInstagram() {
	c.Instagram.Username = strings.TrimSpace(c.Instagram.Username)
	c.Instagram.BaseURL = strings.TrimRight(strings.TrimSpace(c.Instagram.BaseURL), "/")
	if c.Instagram.BaseURL == "" {
		c.Instagram.BaseURL = defaultInstagramBaseURL
	}
	if c.Instagram.TimeoutSeconds <= 0 {
		c.Instagram.TimeoutSeconds = defaultProviderTimeout
	}
	if c.Instagram.MaxVideoBytes <= 0 {
		c.Instagram.MaxVideoBytes = defaultMaxVideoBytes
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.MaxConcurrent <= 0 {
		c.Scheduler.MaxConcurrent = defaultMaxConcurrent
	}
	c.Scheduler.Pipeline = strings.ToLower(strings.TrimSpace(c.Scheduler.Pipeline))
	if c.Scheduler.Pipeline == "" {
		c.Scheduler.Pipeline = defaultPipeline
	}
}

func (c *Config) normalizeHistory() error {
	c.History.Driver = strings.ToLower(strings.TrimSpace(c.History.Driver))
	if c.History.Driver == "sqlite3" {
		c.History.Driver = HistoryDriverSQLite
	}
	if c.History.Driver == "postgresql" {
		c.History.Driver = HistoryDriverPostgres
	}
	c.History.DSN = strings.TrimSpace(c.History.DSN)
	if c.History.Driver == HistoryDriverSQLite && c.History.DSN != "" {
		var err error
		if c.History.DSN, err = expandPath(c.History.DSN); err != nil {
			return fmt.Errorf("history.dsn: %w", err)
		}
	}
	if strings.TrimSpace(c.History.SweepSchedule) == "" {
		c.History.SweepSchedule = defaultSweepSchedule
	}
	return nil
}

func (c *Config) normalizeTracing() error {
	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = TracingExporterNone
	}
	c.Tracing.ServiceName = strings.TrimSpace(c.Tracing.ServiceName)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultServiceName
	}
	c.Tracing.File = strings.TrimSpace(c.Tracing.File)
	if c.Tracing.File != "" {
		var err error
		if c.Tracing.File, err = expandPath(c.Tracing.File); err != nil {
			return fmt.Errorf("tracing.file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}
