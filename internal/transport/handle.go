// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sichat-io/matrix-server/internal/lifecycle"
)

// Phase is the lifecycle state of a [Handle]. Transitions are
// monotonic: Running to Draining to Stopped, never backwards.
type Phase int32

const (
	PhaseRunning Phase = iota
	PhaseDraining
	PhaseStopped
)

// String implements the [fmt.Stringer] interface.
func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handle owns a running [http.Server] and arbitrates its shutdown.
// Both the signal watcher and the idle monitor race to initiate
// shutdown; the phase transition is a compare-and-swap so only the
// first initiator runs the drain hooks and the loser becomes a no-op.
type Handle struct {
	srv *http.Server
	log *slog.Logger

	phase        atomic.Int32
	connCount    atomic.Int64
	lastActivity atomic.Int64

	metrics *metrics
	onDrain lifecycle.Hook
}

func newHandle(srv *http.Server, log *slog.Logger, m *metrics, onDrain lifecycle.Hook) *Handle {
	h := &Handle{
		srv:     srv,
		log:     log,
		metrics: m,
		onDrain: onDrain,
	}
	h.lastActivity.Store(time.Now().UnixNano())
	srv.ConnState = h.connState
	return h
}

// Phase reports the current lifecycle state.
func (h *Handle) Phase() Phase {
	return Phase(h.phase.Load())
}

// ConnCount reports the number of currently open connections.
func (h *Handle) ConnCount() int64 {
	return h.connCount.Load()
}

func (h *Handle) connState(c net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		h.connCount.Add(1)
		h.lastActivity.Store(time.Now().UnixNano())
		h.metrics.connAccepted()
	case http.StateClosed, http.StateHijacked:
		h.connCount.Add(-1)
		h.metrics.connClosed()
	}
}

// beginDrain attempts the Running to Draining transition. It reports
// whether the caller won the race and therefore owns the shutdown.
func (h *Handle) beginDrain(ctx context.Context) bool {
	if !h.phase.CompareAndSwap(int32(PhaseRunning), int32(PhaseDraining)) {
		return false
	}
	if h.onDrain != nil {
		err := h.onDrain.Run(ctx)
		if err != nil {
			h.log.ErrorContext(ctx, "drain hook failed", slog.String("error", err.Error()))
		}
	}
	return true
}

// GracefulShutdown stops accepting new connections and waits up to
// grace for in-flight requests to finish. Connections still open past
// the grace period are closed forcibly.
func (h *Handle) GracefulShutdown(ctx context.Context, grace time.Duration) error {
	if !h.beginDrain(ctx) {
		return nil
	}
	defer h.phase.Store(int32(PhaseStopped))

	h.log.InfoContext(ctx, "shutting down", slog.Duration("grace_period", grace))

	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	err := h.srv.Shutdown(sctx)
	if err == nil {
		return nil
	}

	h.log.WarnContext(ctx, "grace period elapsed with open connections", slog.Int64("open_connections", h.ConnCount()))
	return h.srv.Close()
}

// Shutdown closes the listener and every open connection immediately.
// The idle monitor uses this path, unlike the signal path there is
// nothing in flight worth waiting for.
func (h *Handle) Shutdown(ctx context.Context) error {
	if !h.beginDrain(ctx) {
		return nil
	}
	defer h.phase.Store(int32(PhaseStopped))

	h.log.InfoContext(ctx, "shutting down immediately")
	return h.srv.Close()
}
