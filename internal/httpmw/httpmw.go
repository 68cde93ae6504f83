// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpmw implements the request processing pipeline wrapped
// around the route table. The stage order is a correctness invariant
// and is owned by [Chain]: sensitive header marking encloses tracing
// so span fields are redactable, tracing encloses everything else so
// span lifetime covers the full request, method correction needs the
// final routing status, CORS must answer preflights before routing,
// and the body limit must reject oversized payloads before any
// parsing cost is paid.
package httpmw

import (
	"log/slog"
	"net/http"
)

// Middleware wraps an [http.Handler] with one pipeline stage.
type Middleware func(http.Handler) http.Handler

// Chain returns the pipeline stages in their fixed order, outermost first.
func Chain(log *slog.Logger, maxBodyBytes int64) []Middleware {
	return []Middleware{
		SensitiveHeaders("Authorization"),
		Trace(),
		Compress(),
		UnrecognizedMethod(log),
		CORS(),
		MaxBytes(maxBodyBytes),
	}
}

// Wrap applies the stages around h, first stage outermost.
func Wrap(h http.Handler, stages ...Middleware) http.Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}
