// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"encoding"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/sichat-io/matrix-server/matrix"
)

// Empty is the request (or response) type for operations which carry
// no payload at all.
type Empty struct{}

// PathDecoder is implemented by request types which carry URL path
// parameters, read via [http.Request.PathValue].
type PathDecoder interface {
	DecodePath(r *http.Request) error
}

// QueryDecoder is implemented by request types which carry URL query
// parameters.
type QueryDecoder interface {
	DecodeQuery(q url.Values) error
}

func decodeRequest[Req any](r *http.Request, req *Req) error {
	if pd, ok := any(req).(PathDecoder); ok {
		err := pd.DecodePath(r)
		if err != nil {
			return clientError(err)
		}
	}

	if qd, ok := any(req).(QueryDecoder); ok {
		err := qd.DecodeQuery(r.URL.Query())
		if err != nil {
			return clientError(err)
		}
	}

	return decodeBody(r.Body, req)
}

func decodeBody[Req any](body io.ReadCloser, req *Req) error {
	switch x := any(req).(type) {
	case io.ReaderFrom:
		_, err := x.ReadFrom(body)
		if err != nil {
			return bodyError(err)
		}
		return nil
	case encoding.BinaryUnmarshaler:
		defer func() {
			_ = body.Close()
		}()

		b, err := io.ReadAll(body)
		if err != nil {
			return bodyError(err)
		}

		err = x.UnmarshalBinary(b)
		if err != nil {
			return bodyError(err)
		}
		return nil
	default:
		// request type declares no body
		return nil
	}
}

// clientError keeps protocol errors as-is and folds everything else
// into an invalid parameter envelope. Decode failures describe the
// request, not server internals, so the message is client safe.
func clientError(err error) error {
	var merr *matrix.Error
	if errors.As(err, &merr) {
		return merr
	}
	return matrix.BadRequest(matrix.ErrInvalidParam, err.Error())
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return matrix.BadRequest(matrix.ErrTooLarge, "Request body too large")
	}

	var merr *matrix.Error
	if errors.As(err, &merr) {
		return merr
	}
	return matrix.BadRequest(matrix.ErrBadJson, err.Error())
}

// UnmarshalJsonBody is a helper for request types whose body is JSON.
// It maps malformed JSON onto the M_BAD_JSON envelope so every JSON
// consuming endpoint reports decode failures identically.
func UnmarshalJsonBody(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	err := json.Unmarshal(b, v)
	if err != nil {
		return matrix.BadRequest(matrix.ErrBadJson, "Invalid JSON body")
	}
	return nil
}
