// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpmw

import (
	"net/http"
)

// MaxBytes caps how much of the request body may be read. The cap is
// enforced by [http.MaxBytesReader] so an oversized body fails at the
// first read past the limit, before any parsing happens and before
// the endpoint handler runs. A limit of zero or less disables the cap.
func MaxBytes(n int64) Middleware {
	return func(next http.Handler) http.Handler {
		if n <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
