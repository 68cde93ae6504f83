// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpmw

import (
	"github.com/go-chi/chi/v5/middleware"
)

const compressionLevel = 5

// Compress negotiates response compression from the Accept-Encoding
// header and the response content type.
func Compress() Middleware {
	return middleware.Compress(compressionLevel)
}
