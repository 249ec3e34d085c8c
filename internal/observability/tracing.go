// Package observability builds the OpenTelemetry tracer provider the
// services record spans with.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reelcast/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ShutdownFunc flushes pending spans and releases exporter resources.
type ShutdownFunc func(context.Context) error

// Enabled reports whether cfg selects an exporter.
func Enabled(cfg config.Tracing) bool {
	return cfg.Exporter != "" && cfg.Exporter != config.TracingExporterNone
}

// NewTracerProvider returns the provider selected by cfg. Spans from the
// stdout exporter go to cfg.File when set, otherwise to fallback. When
// tracing is disabled a no-op provider is returned.
func NewTracerProvider(cfg config.Tracing, fallback io.Writer) (trace.TracerProvider, ShutdownFunc, error) {
	if !Enabled(cfg) {
		return tracenoop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}
	if cfg.Exporter != config.TracingExporterStdout {
		return nil, nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}

	out := fallback
	var file *os.File
	if cfg.File != "" {
		var err error
		file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open trace file: %w", err)
		}
		out = file
	}
	if out == nil {
		out = os.Stderr
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, nil, fmt.Errorf("stdout trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	)

	shutdown := func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if file != nil {
			err = errors.Join(err, file.Close())
		}
		return err
	}
	return tp, shutdown, nil
}
