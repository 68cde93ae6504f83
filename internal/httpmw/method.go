// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpmw

import (
	"log/slog"
	"net/http"

	"github.com/sichat-io/matrix-server/matrix"
)

// UnrecognizedMethod observes the status produced by the inner chain
// and, when the router answered 405 for a matched path with the wrong
// method, replaces the generic response with the protocol's standard
// unrecognized request envelope, logging a warning with the method
// and URI.
func UnrecognizedMethod(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			iw := &methodInterceptWriter{ResponseWriter: w}

			next.ServeHTTP(iw, r)

			if !iw.intercepted {
				return
			}

			log.WarnContext(r.Context(), "method not allowed",
				slog.String("method", r.Method),
				slog.String("uri", r.URL.String()),
				HeaderAttr(r.Context(), r, "Origin"),
			)
			matrix.WriteError(w, matrix.NewError(
				matrix.ErrUnrecognized,
				http.StatusMethodNotAllowed,
				"Unrecognized request",
			))
		})
	}
}

// methodInterceptWriter swallows a 405 response so the enclosing
// middleware can rewrite it. Any other status passes through untouched.
type methodInterceptWriter struct {
	http.ResponseWriter

	wroteHeader bool
	intercepted bool
}

// Unwrap exposes the underlying writer so [http.ResponseController]
// can reach Flusher and Hijacker through this stage.
func (w *methodInterceptWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *methodInterceptWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if statusCode == http.StatusMethodNotAllowed {
		w.intercepted = true
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *methodInterceptWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.intercepted {
		// drop the generic 405 body
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}
