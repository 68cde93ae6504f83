// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint adapts strongly typed protocol operations into
// [http.Handler]s. An operation is described by its [Metadata] (HTTP
// method plus every historical path alias) and implemented by a
// [Handler] over its request/response pair. The adapter owns request
// decoding, context extraction and response/error serialization so
// individual operations never touch the raw HTTP surface.
package endpoint

import (
	"context"
	"net/http"

	"github.com/sichat-io/matrix-server/matrix"
)

// Metadata is the static description of one protocol operation.
//
// PathAliases is ordered and non-empty. Multiple aliases exist because
// the protocol evolved through spec versions (r0, v3, ...) which must
// all resolve to the same logical operation. Every alias binds the
// exact same handler; aliases differ only in URL surface.
type Metadata struct {
	Method      string
	PathAliases []string
}

// Handler represents the business logic behind one protocol operation.
type Handler[Req, Resp any] interface {
	Handle(context.Context, Req) (Resp, error)
}

// HandlerFunc is a func variant of the [Handler] interface.
type HandlerFunc[Req, Resp any] func(context.Context, Req) (Resp, error)

// Handle implements the [Handler] interface.
func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

type options struct {
	statusCode int
	extractors []Extractor
}

// Option represents configurable attributes of an [Operation].
type Option func(*options)

// StatusCode overrides the success status code. Default is 200.
func StatusCode(statusCode int) Option {
	return func(o *options) {
		o.statusCode = statusCode
	}
}

// Inject appends context [Extractor]s to run, in order, before the
// request is decoded and the handler invoked. Each operation declares
// only the extractors it needs; adding one here never affects any
// other operation.
func Inject(extractors ...Extractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// Operation is the router facing adaptation of one typed operation.
type Operation[Req, Resp any] struct {
	metadata   Metadata
	statusCode int
	extractors []Extractor
	handler    Handler[Req, Resp]
}

// New initializes an [Operation] from an operation description and its handler.
func New[Req, Resp any](meta Metadata, handler Handler[Req, Resp], opts ...Option) *Operation[Req, Resp] {
	o := &options{
		statusCode: http.StatusOK,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Operation[Req, Resp]{
		metadata:   meta,
		statusCode: o.statusCode,
		extractors: o.extractors,
		handler:    handler,
	}
}

// Metadata returns the operation description used for route registration.
func (op *Operation[Req, Resp]) Metadata() Metadata {
	return op.metadata
}

// ServeHTTP implements the [http.Handler] interface.
//
// Extraction or decode failures short-circuit before the handler runs
// and produce the same envelope shape as handler failures.
func (op *Operation[Req, Resp]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, err := extract(r.Context(), r, op.extractors...)
	if err != nil {
		matrix.WriteError(w, err)
		return
	}

	var req Req
	err = decodeRequest(r, &req)
	if err != nil {
		matrix.WriteError(w, err)
		return
	}

	resp, err := op.handler.Handle(ctx, req)
	if err != nil {
		matrix.WriteError(w, err)
		return
	}

	writeResponse(w, op.statusCode, resp)
}
