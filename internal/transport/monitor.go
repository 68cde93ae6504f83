// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// watchSignals blocks until ctx is cancelled, which the caller arms
// with [signal.NotifyContext], then drains the server gracefully.
func (h *Handle) watchSignals(ctx context.Context, grace time.Duration) error {
	<-ctx.Done()

	if h.Phase() != PhaseRunning {
		return nil
	}

	h.log.Info("received shutdown signal")
	return h.GracefulShutdown(context.Background(), grace)
}

// watchIdle polls the connection count every checkInterval and hard
// stops the server once no connection has been open for threshold.
// Any open connection resets the clock.
func (h *Handle) watchIdle(ctx context.Context, checkInterval, threshold time.Duration) error {
	if threshold <= 0 {
		return nil
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if h.Phase() != PhaseRunning {
			return nil
		}

		if h.ConnCount() > 0 {
			h.lastActivity.Store(time.Now().UnixNano())
			continue
		}

		idle := time.Since(time.Unix(0, h.lastActivity.Load()))
		if idle < threshold {
			continue
		}

		h.log.Info("idle threshold reached", slog.Duration("idle_for", idle))
		return h.Shutdown(context.Background())
	}
}
