// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package router assembles the complete route table: the bulk of the
// registrations come from a declarative list of typed operations whose
// path aliases are expanded automatically, plus a handful of manually
// declared irregular routes, terminated by a catch-all fallback which
// answers every unmatched path with the standard unrecognized error.
package router

import (
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/sichat-io/matrix-server/internal/endpoint"
	"github.com/sichat-io/matrix-server/matrix"
)

// Registration binds one operation description to its handler. The
// handler is installed once per path alias; every alias resolves to
// the identical handler value.
type Registration struct {
	Metadata endpoint.Metadata
	Handler  http.Handler
}

// Operation is implemented by [endpoint.Operation] of any type pair.
type Operation interface {
	http.Handler

	Metadata() endpoint.Metadata
}

// Register lifts a typed operation into a [Registration].
func Register(op Operation) Registration {
	return Registration{
		Metadata: op.Metadata(),
		Handler:  op,
	}
}

// FallbackPattern is the catch-all pattern behind every unmatched
// path. Middleware which must distinguish a real route match from the
// fallback, such as span naming, compares [http.Request.Pattern]
// against it.
const FallbackPattern = "/{path...}"

// this list mirrors the methods the underlying http.ServeMux accepts
// in method-qualified patterns.
var supportedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodTrace,
}

// Mux wraps a [http.ServeMux], registering handlers under
// method-qualified patterns. Unlike a bare ServeMux it guarantees that
// a matched path with an unregistered method reaches an explicit 405
// handler, and that every unmatched path reaches the catch-all
// fallback, even though the fallback pattern would otherwise shadow
// the ServeMux's own 405 synthesis.
type Mux struct {
	mux *http.ServeMux

	initFallbacksOnce sync.Once

	pathMethods map[string][]string
}

// NewMux initializes an empty Mux.
func NewMux() *Mux {
	return &Mux{
		mux:         http.NewServeMux(),
		pathMethods: make(map[string][]string),
	}
}

// Handle registers the handler for the given method and pattern.
//
// Route table construction has no recoverable failure path: an
// unsupported method, an invalid pattern or a conflicting registration
// is a startup-fatal configuration error, so all of them panic.
func (m *Mux) Handle(method, pattern string, h http.Handler) {
	if !slices.Contains(supportedMethods, method) {
		panic(fmt.Sprintf("router: unsupported HTTP method: %q", method))
	}
	m.pathMethods[pattern] = append(m.pathMethods[pattern], method)
	m.mux.Handle(fmt.Sprintf("%s %s", method, pattern), h)
}

// ServeHTTP implements the [http.Handler] interface.
func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.initFallbacksOnce.Do(m.registerFallbackHandlers)

	m.mux.ServeHTTP(w, r)
}

// registerFallbackHandlers installs the catch-all fallback plus one
// explicit 405 handler per unregistered method of every known path.
// The explicit registrations are required because the catch-all
// matches every request, which would otherwise win over the ServeMux's
// own method-not-allowed synthesis.
func (m *Mux) registerFallbackHandlers() {
	m.mux.Handle(FallbackPattern, http.HandlerFunc(notFound))

	for pattern, methods := range m.pathMethods {
		for _, method := range supportedMethods {
			if slices.Contains(methods, method) {
				continue
			}
			m.mux.Handle(fmt.Sprintf("%s %s", method, pattern), http.HandlerFunc(methodNotAllowed))
		}
	}
}

// New builds the full route table. Each registration's metadata is
// expanded into one route per path alias. Irregular routes which are
// not expressible as a single metadata entry are installed through
// the extra functions.
func New(regs []Registration, extra ...func(*Mux)) *Mux {
	m := NewMux()

	for _, reg := range regs {
		if len(reg.Metadata.PathAliases) == 0 {
			panic(fmt.Sprintf("router: no path aliases for %s registration", reg.Metadata.Method))
		}
		for _, alias := range reg.Metadata.PathAliases {
			m.Handle(reg.Metadata.Method, alias, reg.Handler)
		}
	}

	for _, f := range extra {
		f(m)
	}

	return m
}

func notFound(w http.ResponseWriter, r *http.Request) {
	matrix.WriteError(w, matrix.BadRequest(matrix.ErrUnrecognized, "Unrecognized request"))
}

// methodNotAllowed answers with a bare 405 on purpose: the
// method-correction middleware stage observes the status and rewrites
// the response into the protocol envelope.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}
