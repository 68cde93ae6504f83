// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle provides helpers for defining actions to execute
// relative to the server's shutdown sequence, along with a broadcast
// primitive for waking long-poll requests when the server begins to
// drain.
package lifecycle

import (
	"context"
	"errors"
	"sync"
)

// Hook represents functionality that needs to be performed at a
// specific "time" relative to serving, for example just after the
// listener stops accepting new connections.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// MultiHook returns a [Hook] that's the logical concatenation
// of the provided [Hook]s. They're applied sequentially.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Notifier is a broadcast primitive for long-poll endpoints. Callers
// park on the channel returned by [Notifier.Wait]; [Notifier.Notify]
// wakes every parked caller at once and immediately re-arms, so
// subsequent waiters park on a fresh channel.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewNotifier initializes a Notifier with an armed channel.
func NewNotifier() *Notifier {
	return &Notifier{
		ch: make(chan struct{}),
	}
}

// Wait returns a channel that is closed on the next [Notifier.Notify].
func (n *Notifier) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.ch
}

// Notify wakes every caller currently parked on [Notifier.Wait].
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()

	close(n.ch)
	n.ch = make(chan struct{})
}
