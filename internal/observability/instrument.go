// Package observability wires log/slog to the process's log sinks: a
// human-readable stdout/file stream and an OpenTelemetry log-record bridge
// shipped to a collector.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/ambergate/ambergate/internal/config"
)

// shutdownFunc flushes and closes whatever Instrument last opened
// (currently: the OTel LoggerProvider's batch exporter).
var shutdownFunc func(context.Context) error = func(context.Context) error { return nil }

// Instrument installs the default slog.Logger: a local text/JSON handler
// (optionally duplicated to a lumberjack-rotated file) fanned out
// alongside an OTel log bridge, both enriched with trace correlation
// attributes. Call Shutdown before process exit to flush the OTel side.
func Instrument(ctx context.Context, level slog.Level, cfg config.LogConfig) error {
	local, err := newLocalHandler(level, cfg.Format, cfg.File)
	if err != nil {
		return err
	}

	bridge, err := newOTelLogBridge(ctx, level, cfg)
	if err != nil {
		return fmt.Errorf("build otel log bridge: %w", err)
	}
	shutdownFunc = bridge.shutdown

	handler := newTraceContextHandler(multiHandler{local, bridge.handler})
	slog.SetDefault(slog.New(handler))

	return nil
}

// Shutdown flushes the OTel log bridge installed by the most recent
// Instrument call.
func Shutdown(ctx context.Context) error {
	return shutdownFunc(ctx)
}

func newLocalHandler(level slog.Level, logFormat string, logFile string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var w io.Writer = os.Stdout
	if logFile != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	switch strings.ToLower(logFormat) {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text", "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}
}
