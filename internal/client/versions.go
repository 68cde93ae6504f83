// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"

	"github.com/sichat-io/matrix-server/internal/endpoint"
)

type versionsResponse struct {
	Versions []string `json:"versions"`
}

func versions(_ context.Context, _ endpoint.Empty) (versionsResponse, error) {
	return versionsResponse{
		Versions: []string{"r0.5.0", "r0.6.0", "r0.6.1", "v1.1", "v1.2"},
	}, nil
}
