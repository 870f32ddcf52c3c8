// Package observability configures the process-wide logging pipeline.
//
// Log records always flow through log/slog. The format selects the backend:
// plain text or JSON handlers writing to stderr, or an OTLP bridge that ships
// records to a collector via the OpenTelemetry log SDK. Stderr is used so the
// stdio MCP transport keeps stdout clean for protocol traffic.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const loggerName = "linkedinmcp"

// Instrument installs the default slog logger for the given level and format.
// Format is one of "text", "json", or "otlp". Call once at startup, before
// any component captures slog.Default().
func Instrument(level slog.Level, format string) error {
	var handler slog.Handler

	switch format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "otlp":
		provider, err := newLoggerProvider(context.Background(), level)
		if err != nil {
			return fmt.Errorf("creating otlp logger provider: %w", err)
		}
		handler = otelslog.NewHandler(loggerName, otelslog.WithLoggerProvider(provider))
	default:
		return fmt.Errorf("unsupported log format: %q", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// newLoggerProvider builds an OTel log provider with severity filtering.
// The exporter protocol follows OTEL_EXPORTER_OTLP_PROTOCOL (grpc default);
// without a configured endpoint, records go to stderr in OTLP JSON form so
// local runs still produce output.
func newLoggerProvider(ctx context.Context, level slog.Level) (*sdklog.LoggerProvider, error) {
	exporter, err := newExporter(ctx)
	if err != nil {
		return nil, err
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" &&
		os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT") == "" {
		return stdoutlog.New(stdoutlog.WithWriter(os.Stderr))
	}

	switch protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); protocol {
	case "http/protobuf", "http/json":
		return otlploghttp.New(ctx)
	case "", "grpc":
		return otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %q", protocol)
	}
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}
