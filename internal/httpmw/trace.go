// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpmw

import (
	"net/http"

	"github.com/sichat-io/matrix-server/internal/router"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Trace opens one span per request. The span is renamed to the matched
// route pattern once routing has run, falling back to the raw URL path
// when nothing matched (e.g. 404s), and carries the path as a field.
// Renaming must happen after the inner chain returns because the
// ServeMux only records the matched pattern while routing. Requests
// caught by the router's fallback count as unmatched, otherwise every
// 404 would collapse into one catch-all span name.
func Trace() Middleware {
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			path := r.Pattern
			if path == "" || path == router.FallbackPattern {
				path = r.URL.Path
			}

			span := trace.SpanFromContext(r.Context())
			span.SetName(path)
			span.SetAttributes(attribute.String("path", path))
		})

		return otelhttp.NewHandler(named, "http_request")
	}
}
