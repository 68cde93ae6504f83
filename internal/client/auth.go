// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/sichat-io/matrix-server/internal/endpoint"
	"github.com/sichat-io/matrix-server/matrix"
)

// Identity is the authenticated caller of a request, resolved by the
// [RequireAuth] extractor before the handler runs.
type Identity struct {
	UserID      string
	AccessToken string
}

type identityContextKey struct{}

// IdentityFromContext reports the authenticated caller. The second
// return is false on requests whose endpoint did not require auth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// accessToken pulls the token from the Authorization header, falling
// back to the legacy access_token query parameter.
func accessToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("access_token")
}

// RequireAuth returns an [endpoint.Extractor] which resolves the
// access token against the directory and injects the caller's
// [Identity] into the request context. Requests without a token fail
// with M_MISSING_TOKEN, requests with a stale or fabricated token
// with M_UNKNOWN_TOKEN.
func RequireAuth(d *Directory) endpoint.Extractor {
	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		token := accessToken(r)
		if token == "" {
			return nil, matrix.BadRequest(matrix.ErrMissingToken, "Missing access token.")
		}

		userID, ok := d.UserForToken(token)
		if !ok {
			return nil, matrix.BadRequest(matrix.ErrUnknownToken, "Unknown access token.")
		}

		return context.WithValue(ctx, identityContextKey{}, Identity{
			UserID:      userID,
			AccessToken: token,
		}), nil
	}
}

// identity is a handler-side helper: extraction guarantees presence,
// so a missing identity is a wiring bug worth failing loudly on.
func identity(ctx context.Context) Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		panic("client: handler requires auth but no identity was extracted")
	}
	return id
}
