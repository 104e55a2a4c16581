// Package telemetry sets up the OpenTelemetry tracer provider used by the
// service and graph client spans.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/champtc/cyio-graph/internal/config"
)

// ErrUnknownExporter is returned for an unsupported trace exporter name.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider selected by cfg.TraceExporter.
// "none" or an empty name leaves the default no-op provider in place. The
// stdout exporter writes to os.Stderr.
func Init(ctx context.Context, cfg config.TelemetryConfig) (ShutdownFunc, error) {
	return InitWithWriter(ctx, cfg, os.Stderr)
}

// InitWithWriter is Init with an explicit destination for the stdout exporter.
func InitWithWriter(ctx context.Context, cfg config.TelemetryConfig, w io.Writer) (ShutdownFunc, error) {
	if ctx == nil {
		return nil, errors.New("nil context")
	}

	var exporter sdktrace.SpanExporter
	switch strings.ToLower(strings.TrimSpace(cfg.TraceExporter)) {
	case "", "none":
		return noopShutdown, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "cyio-graph"
	}
	res := resource.NewWithAttributes("", attribute.String("service.name", serviceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
