// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sichat-io/matrix-server/internal/endpoint"

	"github.com/stretchr/testify/assert"
)

type versionsResponse struct {
	Versions []string `json:"versions"`
}

func versionsOp() *endpoint.Operation[endpoint.Empty, versionsResponse] {
	return endpoint.New(
		endpoint.Metadata{
			Method: http.MethodGet,
			PathAliases: []string{
				"/_matrix/client/r0/capabilities",
				"/_matrix/client/v3/capabilities",
			},
		},
		endpoint.HandlerFunc[endpoint.Empty, versionsResponse](func(_ context.Context, _ endpoint.Empty) (versionsResponse, error) {
			return versionsResponse{Versions: []string{"r0.6.1", "v1.1"}}, nil
		}),
	)
}

func TestNew(t *testing.T) {
	t.Run("will serve byte-identical responses", func(t *testing.T) {
		t.Run("if the same operation is requested through each of its path aliases", func(t *testing.T) {
			m := New([]Registration{
				Register(versionsOp()),
			})

			bodies := make([][]byte, 0, 2)
			for _, path := range []string{"/_matrix/client/r0/capabilities", "/_matrix/client/v3/capabilities"} {
				w := httptest.NewRecorder()
				r := httptest.NewRequest(http.MethodGet, path, nil)

				m.ServeHTTP(w, r)

				resp := w.Result()
				if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
					return
				}

				b, err := io.ReadAll(resp.Body)
				if !assert.Nil(t, err) {
					return
				}
				bodies = append(bodies, b)
			}

			if !assert.Equal(t, bodies[0], bodies[1]) {
				return
			}
		})
	})

	t.Run("will answer with the unrecognized envelope", func(t *testing.T) {
		t.Run("if no route matches the path", func(t *testing.T) {
			m := New([]Registration{
				Register(versionsOp()),
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/_matrix/client/v3/no/such/route", nil)

			m.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusNotFound, resp.StatusCode) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Contains(t, string(b), "M_UNRECOGNIZED") {
				return
			}
		})

		t.Run("if the request path is the bare root", func(t *testing.T) {
			m := New([]Registration{
				Register(versionsOp()),
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			m.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusNotFound, resp.StatusCode) {
				return
			}
		})
	})

	t.Run("will answer with a bare 405", func(t *testing.T) {
		t.Run("if the path matches but the method does not", func(t *testing.T) {
			m := New([]Registration{
				Register(versionsOp()),
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/_matrix/client/v3/capabilities", nil)

			m.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode) {
				return
			}
		})
	})

	t.Run("will install irregular routes", func(t *testing.T) {
		t.Run("if extra register functions are given", func(t *testing.T) {
			m := New(
				nil,
				func(m *Mux) {
					m.Handle(http.MethodGet, "/_matrix/key/v2/server", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(http.StatusOK)
					}))
				},
			)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/_matrix/key/v2/server", nil)

			m.ServeHTTP(w, r)

			resp := w.Result()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
		})
	})

	t.Run("will panic", func(t *testing.T) {
		t.Run("if a registration carries an unsupported method", func(t *testing.T) {
			defer func() {
				if !assert.NotNil(t, recover()) {
					return
				}
			}()

			m := NewMux()
			m.Handle("BREW", "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		})

		t.Run("if a registration carries no path aliases", func(t *testing.T) {
			defer func() {
				if !assert.NotNil(t, recover()) {
					return
				}
			}()

			New([]Registration{
				{
					Metadata: endpoint.Metadata{Method: http.MethodGet},
					Handler:  http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
				},
			})
		})
	})
}
