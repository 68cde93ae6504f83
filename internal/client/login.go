// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"strings"

	"github.com/sichat-io/matrix-server/internal/endpoint"
	"github.com/sichat-io/matrix-server/matrix"

	"github.com/google/uuid"
)

type loginFlowsResponse struct {
	Flows []loginFlow `json:"flows"`
}

type loginFlow struct {
	Type string `json:"type"`
}

func loginFlows(_ context.Context, _ endpoint.Empty) (loginFlowsResponse, error) {
	return loginFlowsResponse{
		Flows: []loginFlow{{Type: "m.login.password"}},
	}, nil
}

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type loginRequest struct {
	Type       string          `json:"type"`
	Identifier loginIdentifier `json:"identifier"`
	// User is the legacy pre-r0.4 identifier field.
	User     string `json:"user"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

func (req *loginRequest) UnmarshalBinary(b []byte) error {
	return endpoint.UnmarshalJsonBody(b, req)
}

// localpart strips the leading sigil and server name off a full user
// ID; bare localparts pass through unchanged.
func localpart(user string) string {
	user = strings.TrimPrefix(user, "@")
	user, _, _ = strings.Cut(user, ":")
	return user
}

type loginResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
	HomeServer  string `json:"home_server"`
}

type loginHandler struct {
	directory *Directory
}

func (h loginHandler) Handle(_ context.Context, req loginRequest) (loginResponse, error) {
	if req.Type != "m.login.password" {
		return loginResponse{}, matrix.BadRequest(matrix.ErrUnknown, "Unsupported login type.")
	}

	user := req.Identifier.User
	if user == "" {
		user = req.User
	}
	if req.Identifier.Type != "" && req.Identifier.Type != "m.id.user" {
		return loginResponse{}, matrix.BadRequest(matrix.ErrInvalidParam, "Unsupported identifier type.")
	}

	userID, token, err := h.directory.Login(localpart(user), req.Password)
	if err != nil {
		return loginResponse{}, err
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	return loginResponse{
		UserID:      userID,
		AccessToken: token,
		DeviceID:    deviceID,
		HomeServer:  h.directory.ServerName(),
	}, nil
}
