// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package matrix defines the protocol level error envelope shared by
// every request path in the server. All recoverable request failures,
// whether they originate from routing, extraction or an endpoint
// handler, are serialized through this one shape.
package matrix

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the machine readable error code carried in the envelope.
type ErrorKind string

const (
	ErrUnrecognized         ErrorKind = "M_UNRECOGNIZED"
	ErrGuestAccessForbidden ErrorKind = "M_GUEST_ACCESS_FORBIDDEN"
	ErrUnknown              ErrorKind = "M_UNKNOWN"
	ErrNotFound             ErrorKind = "M_NOT_FOUND"
	ErrForbidden            ErrorKind = "M_FORBIDDEN"
	ErrMissingToken         ErrorKind = "M_MISSING_TOKEN"
	ErrUnknownToken         ErrorKind = "M_UNKNOWN_TOKEN"
	ErrBadJson              ErrorKind = "M_BAD_JSON"
	ErrInvalidParam         ErrorKind = "M_INVALID_PARAM"
	ErrTooLarge             ErrorKind = "M_TOO_LARGE"
	ErrUserInUse            ErrorKind = "M_USER_IN_USE"
)

// Error is the standard error envelope. The HTTP status is carried on
// the response line, never in the body.
type Error struct {
	Kind    ErrorKind `json:"errcode"`
	Message string    `json:"error"`

	StatusCode int `json:"-"`
}

// NewError initializes an Error with an explicit HTTP status.
func NewError(kind ErrorKind, status int, message string) *Error {
	return &Error{
		Kind:       kind,
		Message:    message,
		StatusCode: status,
	}
}

// BadRequest initializes an Error whose HTTP status is derived from the kind.
func BadRequest(kind ErrorKind, message string) *Error {
	return NewError(kind, statusForKind(kind), message)
}

func statusForKind(kind ErrorKind) int {
	switch kind {
	case ErrForbidden, ErrGuestAccessForbidden:
		return http.StatusForbidden
	case ErrMissingToken, ErrUnknownToken:
		return http.StatusUnauthorized
	case ErrNotFound, ErrUnrecognized:
		return http.StatusNotFound
	case ErrTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrUserInUse:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Error implements the [builtin.error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ServeHTTP implements the [http.Handler] interface by writing
// the envelope as a JSON response body.
func (e *Error) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	WriteError(w, e)
}

// WriteError serializes any error into the standard envelope. Errors
// which are not already an *Error are reported as M_UNKNOWN with a
// 500 status since their contents are not client safe.
func WriteError(w http.ResponseWriter, err error) {
	merr := asError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(merr.StatusCode)

	// The envelope always marshals; a Write failure here means the
	// client is gone and there is nothing left to report to it.
	_ = json.NewEncoder(w).Encode(merr)
}

func asError(err error) *Error {
	var merr *Error
	if errors.As(err, &merr) {
		return merr
	}
	return NewError(ErrUnknown, http.StatusInternalServerError, "Internal server error")
}
