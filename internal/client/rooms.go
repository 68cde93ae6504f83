// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sichat-io/matrix-server/internal/endpoint"
)

type joinedRoomsResponse struct {
	JoinedRooms []string `json:"joined_rooms"`
}

type joinedRoomsHandler struct {
	directory *Directory
}

func (h joinedRoomsHandler) Handle(ctx context.Context, _ endpoint.Empty) (joinedRoomsResponse, error) {
	return joinedRoomsResponse{
		JoinedRooms: h.directory.JoinedRooms(identity(ctx).UserID),
	}, nil
}

type roomStateRequest struct {
	roomID string
}

func (req *roomStateRequest) DecodePath(r *http.Request) error {
	req.roomID = r.PathValue("room_id")
	return nil
}

// roomStateResponse serializes as a bare JSON array of state events.
type roomStateResponse []StateEvent

func (resp roomStateResponse) MarshalBinary() ([]byte, error) {
	return json.Marshal([]StateEvent(resp))
}

type roomStateHandler struct {
	directory *Directory
}

func (h roomStateHandler) Handle(ctx context.Context, req roomStateRequest) (roomStateResponse, error) {
	events, err := h.directory.RoomState(identity(ctx).UserID, req.roomID)
	if err != nil {
		return nil, err
	}
	return roomStateResponse(events), nil
}

// getStateRequest also serves the empty-state-key route variants: on
// patterns without a state_key wildcard, PathValue returns "".
type getStateRequest struct {
	roomID    string
	eventType string
	stateKey  string
}

func (req *getStateRequest) DecodePath(r *http.Request) error {
	req.roomID = r.PathValue("room_id")
	req.eventType = r.PathValue("event_type")
	req.stateKey = r.PathValue("state_key")
	return nil
}

// stateContentResponse serializes the stored event content verbatim.
type stateContentResponse json.RawMessage

func (resp stateContentResponse) MarshalBinary() ([]byte, error) {
	return []byte(resp), nil
}

type getStateHandler struct {
	directory *Directory
}

func (h getStateHandler) Handle(ctx context.Context, req getStateRequest) (stateContentResponse, error) {
	content, err := h.directory.State(identity(ctx).UserID, req.roomID, req.eventType, req.stateKey)
	if err != nil {
		return nil, err
	}
	return stateContentResponse(content), nil
}

type putStateRequest struct {
	roomID    string
	eventType string
	stateKey  string

	content json.RawMessage
}

func (req *putStateRequest) DecodePath(r *http.Request) error {
	req.roomID = r.PathValue("room_id")
	req.eventType = r.PathValue("event_type")
	req.stateKey = r.PathValue("state_key")
	return nil
}

func (req *putStateRequest) UnmarshalBinary(b []byte) error {
	var content json.RawMessage
	err := endpoint.UnmarshalJsonBody(b, &content)
	if err != nil {
		return err
	}
	req.content = content
	return nil
}

type putStateResponse struct {
	EventID string `json:"event_id"`
}

type putStateHandler struct {
	directory *Directory
}

func (h putStateHandler) Handle(ctx context.Context, req putStateRequest) (putStateResponse, error) {
	eventID, err := h.directory.PutState(identity(ctx).UserID, req.roomID, req.eventType, req.stateKey, req.content)
	if err != nil {
		return putStateResponse{}, err
	}
	return putStateResponse{EventID: eventID}, nil
}
