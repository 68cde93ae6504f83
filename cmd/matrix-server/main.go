// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sichat-io/matrix-server/internal/app"
	"github.com/sichat-io/matrix-server/internal/config"
	"github.com/sichat-io/matrix-server/internal/logmask"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	logLevel   string
	trace      bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "matrix-server",
		Short:         "Federation-capable chat homeserver",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", os.Getenv("SICHAT_CONFIG"), "path of the yaml config file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "export spans to stdout")

	return cmd
}

func serve(ctx context.Context, flags rootFlags) error {
	log, err := newLogger(flags.logLevel)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if flags.trace {
		shutdown, err := initTracing(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer shutdown()
	}

	return app.New(cfg, log).Run(ctx)
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return slog.New(logmask.NewHandler(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}),
		"authorization",
		"access_token",
	)), nil
}

func loadConfig(path string) (app.Config, error) {
	srcs := []config.Source{
		config.FromEnv("SICHAT_"),
	}
	if path != "" {
		// env overrides the file
		srcs = append([]config.Source{config.FromYamlFile(path)}, srcs...)
	}

	m, err := config.Read(srcs...)
	if err != nil {
		return app.Config{}, err
	}

	var cfg app.Config
	err = m.Unmarshal(&cfg)
	return cfg, err
}

func initTracing(ctx context.Context) (func(), error) {
	exp, err := stdouttrace.New()
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(trace.WithBatcher(exp))
	otel.SetTracerProvider(tp)

	return func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}, nil
}
