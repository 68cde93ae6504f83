// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package transport binds the HTTP listener, counts connections and
// drives the shutdown sequence. Two watchers run next to the server:
// one drains gracefully on SIGINT or SIGTERM, the other hard stops
// the process once it has been idle for long enough.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sichat-io/matrix-server/internal/lifecycle"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type runtimeOptions struct {
	addr string
	port uint

	certFile string
	keyFile  string

	logHandler slog.Handler

	gracePeriod   time.Duration
	checkInterval time.Duration
	idleThreshold time.Duration

	notifySystemd bool

	registerer prometheus.Registerer

	onDrain []lifecycle.Hook
}

// RuntimeOption configures the [Runtime] returned by [NewRuntime].
type RuntimeOption func(*runtimeOptions)

// ListenOn configures the address and port the server binds to.
//
// Defaults are "" (all interfaces) and port 8008.
func ListenOn(addr string, port uint) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.addr = addr
		ro.port = port
	}
}

// TLS configures the server to terminate TLS with the given
// certificate and key files. Both must be set together.
func TLS(certFile, keyFile string) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.certFile = certFile
		ro.keyFile = keyFile
	}
}

// LogHandler configures structured logging for lifecycle events.
func LogHandler(h slog.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.logHandler = h
	}
}

// GracePeriod bounds how long a signal-initiated shutdown waits for
// in-flight requests.
//
// Default is 3s.
func GracePeriod(d time.Duration) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.gracePeriod = d
	}
}

// IdleShutdown configures the idle monitor. The server hard stops
// after no connection has been open for threshold, checked every
// checkInterval. A threshold of 0 disables the monitor.
//
// Defaults are a 300s threshold checked every 30s.
func IdleShutdown(checkInterval, threshold time.Duration) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.checkInterval = checkInterval
		ro.idleThreshold = threshold
	}
}

// NotifySystemd enables sd_notify READY and STOPPING messages when
// running under a systemd service with a notify socket.
func NotifySystemd() RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.notifySystemd = true
	}
}

// Metrics configures where connection metrics are registered.
func Metrics(r prometheus.Registerer) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.registerer = r
	}
}

// OnDrain registers a [lifecycle.Hook] to run when shutdown begins,
// before any connection is closed. Hooks run in registration order.
func OnDrain(hook lifecycle.Hook) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.onDrain = append(ro.onDrain, hook)
	}
}

// Runtime serves a [http.Handler] over plain TCP or TLS.
type Runtime struct {
	addr   string
	listen func(string, string) (net.Listener, error)

	certFile string
	keyFile  string

	log *slog.Logger
	h   http.Handler

	gracePeriod   time.Duration
	checkInterval time.Duration
	idleThreshold time.Duration

	notifySystemd bool

	metrics *metrics
	onDrain lifecycle.Hook

	handle *Handle
}

// NewRuntime initializes a [Runtime] serving the given handler.
func NewRuntime(h http.Handler, opts ...RuntimeOption) *Runtime {
	ros := &runtimeOptions{
		port:          8008,
		logHandler:    discardHandler{},
		gracePeriod:   3 * time.Second,
		checkInterval: 30 * time.Second,
		idleThreshold: 300 * time.Second,
	}
	for _, opt := range opts {
		opt(ros)
	}

	return &Runtime{
		addr:          fmt.Sprintf("%s:%d", ros.addr, ros.port),
		listen:        net.Listen,
		certFile:      ros.certFile,
		keyFile:       ros.keyFile,
		log:           slog.New(ros.logHandler),
		h:             h,
		gracePeriod:   ros.gracePeriod,
		checkInterval: ros.checkInterval,
		idleThreshold: ros.idleThreshold,
		notifySystemd: ros.notifySystemd,
		metrics:       newMetrics(ros.registerer),
		onDrain:       lifecycle.MultiHook(ros.onDrain...),
	}
}

// Run serves until a shutdown signal arrives or the idle threshold is
// reached. Bad TLS material or an unbindable address fail fast before
// the first connection is accepted.
func (rt *Runtime) Run(ctx context.Context) error {
	ls, err := rt.listen("tcp", rt.addr)
	if err != nil {
		rt.log.ErrorContext(ctx, "failed to listen for connections", slog.String("error", err.Error()))
		return err
	}

	if rt.certFile != "" || rt.keyFile != "" {
		cert, err := tls.LoadX509KeyPair(rt.certFile, rt.keyFile)
		if err != nil {
			_ = ls.Close()
			rt.log.ErrorContext(ctx, "failed to load tls certificate", slog.String("error", err.Error()))
			return err
		}
		ls = tls.NewListener(ls, &tls.Config{
			Certificates: []tls.Certificate{cert},
		})
	}

	srv := &http.Server{
		Handler: rt.h,
	}
	rt.handle = newHandle(srv, rt.log, rt.metrics, rt.onDrain)

	sctx, stop := signalContext(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		return rt.handle.watchSignals(gctx, rt.gracePeriod)
	})
	g.Go(func() error {
		return rt.handle.watchIdle(gctx, rt.checkInterval, rt.idleThreshold)
	})
	g.Go(func() error {
		rt.log.InfoContext(gctx, "listening for connections", slog.String("addr", ls.Addr().String()))
		if rt.notifySystemd {
			sdNotify(rt.log, sdReady)
		}

		err := srv.Serve(ls)
		if rt.notifySystemd {
			sdNotify(rt.log, sdStopping)
		}
		return err
	})

	err = g.Wait()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		rt.log.InfoContext(ctx, "shut down")
		return nil
	}
	rt.log.ErrorContext(ctx, "server encountered unexpected error", slog.String("error", err.Error()))
	return err
}

// Handle exposes the lifecycle handle of the running server. It is
// nil until [Runtime.Run] has been called.
func (rt *Runtime) Handle() *Handle {
	return rt.handle
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
