package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/ambergate/ambergate/internal/config"
)

// otelLogBridge is an slog.Handler backed by the OTel logs SDK: every
// record also becomes an OTel log record shipped through whatever
// exporter cfg selects.
type otelLogBridge struct {
	handler  slog.Handler
	shutdown func(context.Context) error
}

func newOTelLogBridge(ctx context.Context, level slog.Level, cfg config.LogConfig) (*otelLogBridge, error) {
	exporter, err := newLogExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build log exporter: %w", err)
	}

	var sevVar minsev.SeverityVar
	sevVar.Set(minSeverityFor(level))

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), &sevVar)
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	handler := otelslog.NewHandler("ambergate", otelslog.WithLoggerProvider(provider))

	return &otelLogBridge{handler: handler, shutdown: provider.Shutdown}, nil
}

// newLogExporter builds the OTel log exporter cfg selects: an OTLP
// collector over gRPC (default) or HTTP when OTLPEndpoint is set, else a
// stdout exporter so the bridge still does something useful without a
// collector configured.
func newLogExporter(ctx context.Context, cfg config.LogConfig) (sdklog.Exporter, error) {
	if cfg.OTLPEndpoint == "" {
		return stdoutlog.New(stdoutlog.WithWriter(os.Stderr))
	}

	switch strings.ToLower(cfg.OTLPProtocol) {
	case "http":
		return otlploghttp.New(ctx,
			otlploghttp.WithEndpoint(cfg.OTLPEndpoint),
			otlploghttp.WithInsecure(),
		)
	default:
		return otlploggrpc.New(ctx,
			otlploggrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlploggrpc.WithInsecure(),
		)
	}
}

func minSeverityFor(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
