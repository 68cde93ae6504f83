// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"net/http"

	"github.com/sichat-io/matrix-server/internal/endpoint"
	"github.com/sichat-io/matrix-server/internal/router"
	"github.com/sichat-io/matrix-server/matrix"
)

// aliases pairs the legacy r0 route of a client endpoint with its v3
// twin. Clients predating spec v1.1 still address r0 paths and both
// must answer identically.
func aliases(suffix string) []string {
	return []string{
		"/_matrix/client/r0" + suffix,
		"/_matrix/client/v3" + suffix,
	}
}

// Routes builds the declarative client-server endpoint catalogue
// backed by the given directory.
func Routes(d *Directory) []router.Registration {
	return []router.Registration{
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: []string{"/_matrix/client/versions"},
			},
			endpoint.HandlerFunc[endpoint.Empty, versionsResponse](versions),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: aliases("/login"),
			},
			endpoint.HandlerFunc[endpoint.Empty, loginFlowsResponse](loginFlows),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodPost,
				PathAliases: aliases("/login"),
			},
			loginHandler{directory: d},
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodPost,
				PathAliases: aliases("/logout"),
			},
			logoutHandler{directory: d},
			endpoint.Inject(RequireAuth(d)),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: aliases("/account/whoami"),
			},
			endpoint.HandlerFunc[endpoint.Empty, whoamiResponse](whoami),
			endpoint.Inject(RequireAuth(d)),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: aliases("/profile/{user_id}/displayname"),
			},
			getDisplaynameHandler{directory: d},
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodPut,
				PathAliases: aliases("/profile/{user_id}/displayname"),
			},
			setDisplaynameHandler{directory: d},
			endpoint.Inject(RequireAuth(d)),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: aliases("/joined_rooms"),
			},
			joinedRoomsHandler{directory: d},
			endpoint.Inject(RequireAuth(d)),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: aliases("/rooms/{room_id}/state"),
			},
			roomStateHandler{directory: d},
			endpoint.Inject(RequireAuth(d)),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: aliases("/rooms/{room_id}/state/{event_type}/{state_key}"),
			},
			getStateHandler{directory: d},
			endpoint.Inject(RequireAuth(d)),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodPut,
				PathAliases: aliases("/rooms/{room_id}/state/{event_type}/{state_key}"),
			},
			putStateHandler{directory: d},
			endpoint.Inject(RequireAuth(d)),
		)),
		router.Register(endpoint.New(
			endpoint.Metadata{
				Method:      http.MethodGet,
				PathAliases: aliases("/sync"),
			},
			syncHandler{directory: d},
			endpoint.Inject(RequireAuth(d)),
		)),
	}
}

// EmptyStateKeyRoutes installs the state endpoint variants whose
// state key is empty. The ServeMux cannot express an optional
// trailing segment, so the bare event type path and its
// trailing-slash twin are registered as literal patterns, all bound
// to the same operations as the keyed routes. PathValue("state_key")
// yields "" on these patterns.
func EmptyStateKeyRoutes(d *Directory) func(*router.Mux) {
	get := endpoint.New(
		endpoint.Metadata{
			Method:      http.MethodGet,
			PathAliases: aliases("/rooms/{room_id}/state/{event_type}"),
		},
		getStateHandler{directory: d},
		endpoint.Inject(RequireAuth(d)),
	)
	put := endpoint.New(
		endpoint.Metadata{
			Method:      http.MethodPut,
			PathAliases: aliases("/rooms/{room_id}/state/{event_type}"),
		},
		putStateHandler{directory: d},
		endpoint.Inject(RequireAuth(d)),
	)

	return func(m *router.Mux) {
		for _, alias := range aliases("/rooms/{room_id}/state/{event_type}") {
			m.Handle(http.MethodGet, alias, get)
			m.Handle(http.MethodGet, alias+"/{$}", get)
			m.Handle(http.MethodPut, alias, put)
			m.Handle(http.MethodPut, alias+"/{$}", put)
		}
	}
}

// InitialSyncRoutes installs the legacy initial sync endpoint, which
// is answered with a guest access error unconditionally.
func InitialSyncRoutes() func(*router.Mux) {
	h := matrix.BadRequest(matrix.ErrGuestAccessForbidden, "Guest access not implemented")

	return func(m *router.Mux) {
		for _, alias := range aliases("/rooms/{room_id}/initialSync") {
			m.Handle(http.MethodGet, alias, h)
		}
	}
}
