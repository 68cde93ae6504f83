// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"net/http"

	"github.com/sichat-io/matrix-server/internal/endpoint"
	"github.com/sichat-io/matrix-server/matrix"
)

type getDisplaynameRequest struct {
	userID string
}

func (req *getDisplaynameRequest) DecodePath(r *http.Request) error {
	req.userID = r.PathValue("user_id")
	return nil
}

type displaynameResponse struct {
	Displayname string `json:"displayname,omitempty"`
}

type getDisplaynameHandler struct {
	directory *Directory
}

func (h getDisplaynameHandler) Handle(_ context.Context, req getDisplaynameRequest) (displaynameResponse, error) {
	name, err := h.directory.Displayname(req.userID)
	if err != nil {
		return displaynameResponse{}, err
	}
	return displaynameResponse{Displayname: name}, nil
}

type setDisplaynameRequest struct {
	userID string

	Displayname string `json:"displayname"`
}

func (req *setDisplaynameRequest) DecodePath(r *http.Request) error {
	req.userID = r.PathValue("user_id")
	return nil
}

func (req *setDisplaynameRequest) UnmarshalBinary(b []byte) error {
	return endpoint.UnmarshalJsonBody(b, req)
}

type setDisplaynameHandler struct {
	directory *Directory
}

func (h setDisplaynameHandler) Handle(ctx context.Context, req setDisplaynameRequest) (struct{}, error) {
	if req.userID != identity(ctx).UserID {
		return struct{}{}, matrix.BadRequest(matrix.ErrForbidden, "You cannot update the profile of another user.")
	}

	err := h.directory.SetDisplayname(req.userID, req.Displayname)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, nil
}
