// Package commands implements the ambergate CLI's subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ambergate/ambergate/internal/app"
	"github.com/ambergate/ambergate/internal/config"
	"github.com/ambergate/ambergate/internal/observability"
)

// configFlag is shared by every leaf command that needs to load
// internal/config, since urfave/cli/v3 flags aren't visible to
// subcommands unless redeclared on each one.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML config file",
	}
}

// Execute runs the root ambergate command.
func Execute(ctx context.Context, args []string, version, commit string) error {
	cmd := &cli.Command{
		Name:    "ambergate",
		Usage:   "Anthropic-compatible gateway in front of an OpenAI-style chat completions backend",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Commands: []*cli.Command{
			startCommand(),
			authCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start the gateway",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
			},
		},
		Action: startAction,
	}
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return err
	}

	if logFormat := cmd.String("log-format"); logFormat != "" {
		cfg.Log.Format = logFormat
	}

	if err := observability.Instrument(ctx, level, cfg.Log); err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "observability shutdown failed", "error", err)
		}
	}()

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

// loadConfig loads internal/config from path, or from compiled-in
// defaults plus environment variables alone when path is empty.
func loadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
