// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"net/http"
)

// Extractor pulls one context value a handler depends on out of the
// raw request, e.g. an authenticated identity from the Authorization
// header. Extractors run in declaration order before the request body
// is parsed. A returned error aborts the request with the standard
// envelope.
type Extractor func(context.Context, *http.Request) (context.Context, error)

func extract(ctx context.Context, r *http.Request, extractors ...Extractor) (context.Context, error) {
	for _, extractor := range extractors {
		var err error
		ctx, err = extractor(ctx, r)
		if err != nil {
			return nil, err
		}
	}
	return ctx, nil
}
