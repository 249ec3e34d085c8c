package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable. Missing provider credentials
// are not rejected here: the server starts without them and requests that
// need them fail with a configuration error.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL, got %q", c.Server.BaseURL)
	}
	return nil
}

func (c *Config) validateScheduler() error {
	switch c.Scheduler.Pipeline {
	case PipelineDirect, PipelineHTTP:
	default:
		return fmt.Errorf("scheduler.pipeline must be %q or %q, got %q", PipelineDirect, PipelineHTTP, c.Scheduler.Pipeline)
	}
	return nil
}

func (c *Config) validateHistory() error {
	switch c.History.Driver {
	case HistoryDriverNone:
		return nil
	case HistoryDriverSQLite, HistoryDriverPostgres:
	default:
		return fmt.Errorf("history.driver must be empty, %q or %q, got %q", HistoryDriverSQLite, HistoryDriverPostgres, c.History.Driver)
	}
	if c.History.DSN == "" {
		return errors.New("history.dsn must be set when history.driver is set")
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must be 0 (keep forever) or positive, got %d", c.History.RetentionDays)
	}
	if _, err := cron.ParseStandard(c.History.SweepSchedule); err != nil {
		return fmt.Errorf("history.sweep_schedule: %w", err)
	}
	return nil
}

func (c *Config) validateTracing() error {
	switch c.Tracing.Exporter {
	case TracingExporterNone, TracingExporterStdout:
	default:
		return fmt.Errorf("tracing.exporter must be %q or %q, got %q", TracingExporterNone, TracingExporterStdout, c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got %g", c.Tracing.SampleRatio)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
