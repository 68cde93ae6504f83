// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"encoding"
	"encoding/json"
	"net/http"

	"github.com/sichat-io/matrix-server/matrix"
)

// ContentTyper is implemented by response types served with a content
// type other than application/json.
type ContentTyper interface {
	ContentType() string
}

func writeResponse[Resp any](w http.ResponseWriter, statusCode int, resp Resp) {
	if _, ok := any(resp).(Empty); ok {
		w.WriteHeader(statusCode)
		return
	}

	// Marshal before touching the ResponseWriter so a marshal failure
	// can still be reported with an error status.
	b, err := marshalResponse(resp)
	if err != nil {
		matrix.WriteError(w, err)
		return
	}

	contentType := "application/json"
	if ct, ok := any(resp).(ContentTyper); ok {
		contentType = ct.ContentType()
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(b)
}

func marshalResponse[Resp any](resp Resp) ([]byte, error) {
	if bm, ok := any(resp).(encoding.BinaryMarshaler); ok {
		return bm.MarshalBinary()
	}
	return json.Marshal(resp)
}
