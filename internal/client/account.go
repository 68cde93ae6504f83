// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"

	"github.com/sichat-io/matrix-server/internal/endpoint"
)

type whoamiResponse struct {
	UserID string `json:"user_id"`
}

func whoami(ctx context.Context, _ endpoint.Empty) (whoamiResponse, error) {
	return whoamiResponse{UserID: identity(ctx).UserID}, nil
}

type logoutHandler struct {
	directory *Directory
}

func (h logoutHandler) Handle(ctx context.Context, _ endpoint.Empty) (struct{}, error) {
	h.directory.Logout(identity(ctx).AccessToken)
	return struct{}{}, nil
}
