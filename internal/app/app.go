// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app assembles the server out of its parts: the route table,
// the middleware chain and the transport runtime, all built from one
// explicit [Config] value. Nothing in here is global, two servers can
// be assembled side by side in the same process.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sichat-io/matrix-server/internal/client"
	"github.com/sichat-io/matrix-server/internal/federation"
	"github.com/sichat-io/matrix-server/internal/httpmw"
	"github.com/sichat-io/matrix-server/internal/lifecycle"
	"github.com/sichat-io/matrix-server/internal/router"
	"github.com/sichat-io/matrix-server/internal/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TlsConfig carries the paths of the TLS material. Both must be set
// together; leaving both empty serves plain TCP.
type TlsConfig struct {
	CertificatePath string `config:"certificate_path"`
	KeyPath         string `config:"key_path"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `config:"enabled"`
}

// Config is the full server configuration, unmarshalled from the
// yaml file merged with SICHAT_ environment variables.
type Config struct {
	ServerName string `config:"server_name"`

	Address string    `config:"address"`
	Port    uint      `config:"port"`
	Tls     TlsConfig `config:"tls"`

	MaxRequestBytes int64 `config:"max_request_bytes"`

	GracePeriod       time.Duration `config:"grace_period"`
	IdleCheckInterval time.Duration `config:"idle_check_interval"`
	// IdleTimeout of 0 takes the default; a negative value disables
	// the idle monitor entirely.
	IdleTimeout time.Duration `config:"idle_timeout"`

	SystemdNotify bool          `config:"systemd_notify"`
	Metrics       MetricsConfig `config:"metrics"`
}

func (c Config) withDefaults() Config {
	if c.ServerName == "" {
		c.ServerName = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8008
	}
	if c.MaxRequestBytes == 0 {
		c.MaxRequestBytes = 20 * 1024 * 1024
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 3 * time.Second
	}
	if c.IdleCheckInterval == 0 {
		c.IdleCheckInterval = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 300 * time.Second
	}
	return c
}

// App is a fully assembled server, ready to run.
type App struct {
	runtime *transport.Runtime
	handler http.Handler
}

// New assembles the route table, middleware chain and transport
// runtime for the given configuration.
func New(cfg Config, log *slog.Logger) *App {
	cfg = cfg.withDefaults()

	rotation := lifecycle.NewNotifier()
	directory := client.NewDirectory(cfg.ServerName, rotation)

	regs := append(client.Routes(directory), federation.Routes()...)

	extra := []func(*router.Mux){
		client.EmptyStateKeyRoutes(directory),
		client.InitialSyncRoutes(),
		federation.KeyRoutes(cfg.ServerName),
	}

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		extra = append(extra, func(m *router.Mux) {
			m.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		})
	}

	h := httpmw.Wrap(
		router.New(regs, extra...),
		httpmw.Chain(log, cfg.MaxRequestBytes)...,
	)

	opts := []transport.RuntimeOption{
		transport.ListenOn(cfg.Address, cfg.Port),
		transport.LogHandler(log.Handler()),
		transport.GracePeriod(cfg.GracePeriod),
		transport.IdleShutdown(cfg.IdleCheckInterval, cfg.IdleTimeout),
		transport.Metrics(registry),
		transport.OnDrain(lifecycle.HookFunc(func(ctx context.Context) error {
			// wake parked long polls so their connections go idle
			rotation.Notify()
			return nil
		})),
	}
	if cfg.Tls.CertificatePath != "" || cfg.Tls.KeyPath != "" {
		opts = append(opts, transport.TLS(cfg.Tls.CertificatePath, cfg.Tls.KeyPath))
	}
	if cfg.SystemdNotify {
		opts = append(opts, transport.NotifySystemd())
	}

	return &App{
		runtime: transport.NewRuntime(h, opts...),
		handler: h,
	}
}

// Run serves until a shutdown signal arrives or the idle threshold
// is reached.
func (a *App) Run(ctx context.Context) error {
	return a.runtime.Run(ctx)
}

// Handler exposes the fully wrapped HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}
