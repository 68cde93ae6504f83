// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sichat-io/matrix-server/matrix"

	"github.com/stretchr/testify/assert"
)

type echoRequest struct {
	Msg string `json:"msg"`
}

func (req *echoRequest) UnmarshalBinary(b []byte) error {
	return UnmarshalJsonBody(b, req)
}

type echoResponse struct {
	Msg string `json:"msg"`
}

func TestOperation_ServeHTTP(t *testing.T) {
	t.Run("will return the success status code", func(t *testing.T) {
		t.Run("if the handler succeeds with an empty response", func(t *testing.T) {
			op := New(
				Metadata{Method: http.MethodGet, PathAliases: []string{"/ping"}},
				HandlerFunc[Empty, Empty](func(_ context.Context, _ Empty) (Empty, error) {
					return Empty{}, nil
				}),
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/ping", nil)

			op.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
		})

		t.Run("if the handler succeeds with a JSON response", func(t *testing.T) {
			op := New(
				Metadata{Method: http.MethodPost, PathAliases: []string{"/echo"}},
				HandlerFunc[echoRequest, echoResponse](func(_ context.Context, req echoRequest) (echoResponse, error) {
					return echoResponse{Msg: req.Msg}, nil
				}),
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"msg": "hello"}`))

			op.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, "application/json", resp.Header.Get("Content-Type")) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}

			var echoResp echoResponse
			err = json.Unmarshal(b, &echoResp)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello", echoResp.Msg) {
				return
			}
		})

		t.Run("if the StatusCode option is set", func(t *testing.T) {
			op := New(
				Metadata{Method: http.MethodPost, PathAliases: []string{"/things"}},
				HandlerFunc[Empty, Empty](func(_ context.Context, _ Empty) (Empty, error) {
					return Empty{}, nil
				}),
				StatusCode(http.StatusCreated),
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/things", nil)

			op.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusCreated, resp.StatusCode) {
				return
			}
		})
	})

	t.Run("will short-circuit before the handler", func(t *testing.T) {
		t.Run("if an extractor fails", func(t *testing.T) {
			var invocations atomic.Int64

			op := New(
				Metadata{Method: http.MethodGet, PathAliases: []string{"/whoami"}},
				HandlerFunc[Empty, Empty](func(_ context.Context, _ Empty) (Empty, error) {
					invocations.Add(1)
					return Empty{}, nil
				}),
				Inject(func(ctx context.Context, r *http.Request) (context.Context, error) {
					return nil, matrix.BadRequest(matrix.ErrMissingToken, "Missing access token")
				}),
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/whoami", nil)

			op.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusUnauthorized, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, int64(0), invocations.Load()) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Contains(t, string(b), "M_MISSING_TOKEN") {
				return
			}
		})

		t.Run("if the request body is malformed JSON", func(t *testing.T) {
			var invocations atomic.Int64

			op := New(
				Metadata{Method: http.MethodPost, PathAliases: []string{"/echo"}},
				HandlerFunc[echoRequest, echoResponse](func(_ context.Context, req echoRequest) (echoResponse, error) {
					invocations.Add(1)
					return echoResponse{}, nil
				}),
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{not json`))

			op.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusBadRequest, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, int64(0), invocations.Load()) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Contains(t, string(b), "M_BAD_JSON") {
				return
			}
		})
	})

	t.Run("will serialize handler errors into the envelope", func(t *testing.T) {
		t.Run("if the handler returns a protocol error", func(t *testing.T) {
			op := New(
				Metadata{Method: http.MethodGet, PathAliases: []string{"/thing"}},
				HandlerFunc[Empty, Empty](func(_ context.Context, _ Empty) (Empty, error) {
					return Empty{}, matrix.BadRequest(matrix.ErrNotFound, "No such thing")
				}),
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/thing", nil)

			op.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusNotFound, resp.StatusCode) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Contains(t, string(b), "M_NOT_FOUND") {
				return
			}
		})
	})

	t.Run("will pass extracted context values to the handler", func(t *testing.T) {
		t.Run("if extractors are declared", func(t *testing.T) {
			type ctxKey struct{}

			op := New(
				Metadata{Method: http.MethodGet, PathAliases: []string{"/whoami"}},
				HandlerFunc[Empty, echoResponse](func(ctx context.Context, _ Empty) (echoResponse, error) {
					v, _ := ctx.Value(ctxKey{}).(string)
					return echoResponse{Msg: v}, nil
				}),
				Inject(func(ctx context.Context, r *http.Request) (context.Context, error) {
					return context.WithValue(ctx, ctxKey{}, r.Header.Get("X-Test")), nil
				}),
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			r.Header.Set("X-Test", "@alice:example.org")

			op.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Contains(t, string(b), "@alice:example.org") {
				return
			}
		})
	})
}
