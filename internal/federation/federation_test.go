// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package federation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sichat-io/matrix-server/internal/router"

	"github.com/stretchr/testify/assert"
)

func get(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w.Result()
}

func TestRoutes(t *testing.T) {
	t.Run("will report the server version", func(t *testing.T) {
		t.Run("if the version endpoint is queried", func(t *testing.T) {
			m := router.New(Routes())

			resp := get(t, m, "/_matrix/federation/v1/version")
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}

			var body struct {
				Server struct {
					Name string `json:"name"`
				} `json:"server"`
			}
			err := json.NewDecoder(resp.Body).Decode(&body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "sichat", body.Server.Name) {
				return
			}
		})
	})

	t.Run("will serve an empty public room list", func(t *testing.T) {
		t.Run("if no rooms are published", func(t *testing.T) {
			m := router.New(Routes())

			resp := get(t, m, "/_matrix/federation/v1/publicRooms")
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}

			var body struct {
				Chunk []struct{} `json:"chunk"`
			}
			err := json.NewDecoder(resp.Body).Decode(&body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Empty(t, body.Chunk) {
				return
			}
		})
	})
}

func TestKeyRoutes(t *testing.T) {
	t.Run("will serve the full key set", func(t *testing.T) {
		t.Run("if either the bare or the key id route is queried", func(t *testing.T) {
			m := router.New(nil, KeyRoutes("example.org"))

			for _, target := range []string{
				"/_matrix/key/v2/server",
				"/_matrix/key/v2/server/ed25519:auto",
			} {
				resp := get(t, m, target)
				if !assert.Equal(t, http.StatusOK, resp.StatusCode, target) {
					return
				}

				var body struct {
					ServerName string                       `json:"server_name"`
					VerifyKeys map[string]map[string]string `json:"verify_keys"`
				}
				err := json.NewDecoder(resp.Body).Decode(&body)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, "example.org", body.ServerName) {
					return
				}
				if !assert.Contains(t, body.VerifyKeys, "ed25519:auto") {
					return
				}
			}
		})
	})
}
