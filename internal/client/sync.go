// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/sichat-io/matrix-server/matrix"
)

type syncRequest struct {
	since   string
	timeout time.Duration
}

func (req *syncRequest) DecodeQuery(q url.Values) error {
	req.since = q.Get("since")

	if raw := q.Get("timeout"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			return matrix.BadRequest(matrix.ErrInvalidParam, "Invalid timeout value.")
		}
		req.timeout = time.Duration(ms) * time.Millisecond
	}
	return nil
}

type syncResponse struct {
	NextBatch string `json:"next_batch"`
}

type syncHandler struct {
	directory *Directory
}

// Handle long polls: when the client is already at the current
// position it parks on the rotation notifier until new state arrives,
// the timeout expires or the server begins to drain. The drain case
// is the point of the rotate event, every parked sync returns
// immediately so its connection goes idle and can be shut down.
func (h syncHandler) Handle(ctx context.Context, req syncRequest) (syncResponse, error) {
	batch := h.directory.NextBatch()
	if req.since != batch || req.timeout <= 0 {
		return syncResponse{NextBatch: batch}, nil
	}

	timer := time.NewTimer(req.timeout)
	defer timer.Stop()

	select {
	case <-h.directory.Rotation().Wait():
	case <-timer.C:
	case <-ctx.Done():
	}

	return syncResponse{NextBatch: h.directory.NextBatch()}, nil
}
