// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package federation implements the server-server endpoint catalogue.
// Like the client catalogue it is deliberately thin, the routes exist
// to exercise dispatch, not to federate for real.
package federation

import (
	"context"
	"net/http"
	"time"

	"github.com/sichat-io/matrix-server/internal/endpoint"
	"github.com/sichat-io/matrix-server/internal/router"
)

type serverVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type versionResponse struct {
	Server serverVersion `json:"server"`
}

func version(_ context.Context, _ endpoint.Empty) (versionResponse, error) {
	return versionResponse{
		Server: serverVersion{
			Name:    "sichat",
			Version: "0.3.0",
		},
	}, nil
}

type verifyKey struct {
	Key string `json:"key"`
}

type serverKeysResponse struct {
	ServerName    string               `json:"server_name"`
	ValidUntilTs  int64                `json:"valid_until_ts"`
	VerifyKeys    map[string]verifyKey `json:"verify_keys"`
	OldVerifyKeys map[string]verifyKey `json:"old_verify_keys"`
}

// Keys serves this server's signing keys. The same handler answers
// both the bare route and the deprecated {key_id} variant, key
// requests always return the full key set.
type Keys struct {
	serverName string
	verifyKeys map[string]verifyKey
}

// NewKeys initializes the key catalogue for the given server name.
func NewKeys(serverName string) *Keys {
	return &Keys{
		serverName: serverName,
		verifyKeys: map[string]verifyKey{
			"ed25519:auto": {Key: "VGhpcyBpcyBub3QgYSByZWFsIGtleQ"},
		},
	}
}

func (k *Keys) Handle(_ context.Context, _ endpoint.Empty) (serverKeysResponse, error) {
	return serverKeysResponse{
		ServerName:    k.serverName,
		ValidUntilTs:  time.Now().Add(24 * time.Hour).UnixMilli(),
		VerifyKeys:    k.verifyKeys,
		OldVerifyKeys: map[string]verifyKey{},
	}, nil
}

type publicRoomsResponse struct {
	Chunk                  []struct{} `json:"chunk"`
	TotalRoomCountEstimate int        `json:"total_room_count_estimate"`
}

func publicRooms(_ context.Context, _ endpoint.Empty) (publicRoomsResponse, error) {
	return publicRoomsResponse{
		Chunk: []struct{}{},
	}, nil
}

// Routes builds the declarative federation endpoint catalogue.
func Routes() []router.Registration {
	return []router.Registration{
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: []string{"/_matrix/federation/v1/version"},
			},
			endpoint.HandlerFunc[endpoint.Empty, versionResponse](version),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: []string{"/_matrix/federation/v1/publicRooms"},
			},
			endpoint.HandlerFunc[endpoint.Empty, publicRoomsResponse](publicRooms),
		)),
	}
}

// KeyRoutes installs the signing key endpoints. The {key_id} variant
// is deprecated but still queried by older servers, so both patterns
// bind the same operation.
func KeyRoutes(serverName string) func(*router.Mux) {
	op := endpoint.New(
		endpoint.Metadata{
			Method:      http.MethodGet,
			PathAliases: []string{"/_matrix/key/v2/server"},
		},
		NewKeys(serverName),
	)

	return func(m *router.Mux) {
		m.Handle(http.MethodGet, "/_matrix/key/v2/server", op)
		m.Handle(http.MethodGet, "/_matrix/key/v2/server/{key_id}", op)
	}
}
