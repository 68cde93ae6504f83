// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpmw

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type sensitiveHeadersKey struct{}

// SensitiveHeaders marks the given header names as sensitive for the
// rest of the pipeline. Downstream stages which log or trace request
// headers must consult the mark via [HeaderAttr] so flagged values are
// never recorded.
func SensitiveHeaders(names ...string) Middleware {
	marked := make(map[string]struct{}, len(names))
	for _, name := range names {
		marked[strings.ToLower(name)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), sensitiveHeadersKey{}, marked)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsSensitiveHeader reports whether the header name was flagged by an
// enclosing [SensitiveHeaders] stage.
func IsSensitiveHeader(ctx context.Context, name string) bool {
	marked, ok := ctx.Value(sensitiveHeadersKey{}).(map[string]struct{})
	if !ok {
		return false
	}
	_, ok = marked[strings.ToLower(name)]
	return ok
}

// HeaderAttr returns a log attribute for the named request header,
// anonymizing the value when the header is marked sensitive.
func HeaderAttr(ctx context.Context, r *http.Request, name string) slog.Attr {
	key := strings.ToLower(name)
	value := r.Header.Get(name)
	if value == "" {
		return slog.String(key, "")
	}
	if IsSensitiveHeader(ctx, name) {
		return slog.String(key, "****")
	}
	return slog.String(key, value)
}
