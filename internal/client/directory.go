// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package client implements the client-server endpoint catalogue. The
// handlers are deliberately thin: they are backed by an in-memory
// directory and exist to exercise the dispatch and transport layers
// end to end, not to be a complete protocol implementation.
package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sichat-io/matrix-server/internal/lifecycle"
	"github.com/sichat-io/matrix-server/matrix"

	"github.com/google/uuid"
)

type account struct {
	userID      string
	password    string
	displayname string
}

type stateKey struct {
	eventType string
	key       string
}

// Directory is the in-memory account, token and room state store
// backing the endpoint catalogue. All methods are safe for concurrent
// use.
type Directory struct {
	serverName string
	rotation   *lifecycle.Notifier

	mu         sync.RWMutex
	accounts   map[string]*account
	tokens     map[string]string
	joined     map[string]map[string]struct{}
	state      map[string]map[stateKey]json.RawMessage
	generation uint64
}

// NewDirectory initializes an empty Directory. The rotation notifier
// wakes parked sync requests whenever stored state advances or the
// server begins to drain.
func NewDirectory(serverName string, rotation *lifecycle.Notifier) *Directory {
	return &Directory{
		serverName: serverName,
		rotation:   rotation,
		accounts:   make(map[string]*account),
		tokens:     make(map[string]string),
		joined:     make(map[string]map[string]struct{}),
		state:      make(map[string]map[stateKey]json.RawMessage),
	}
}

// ServerName reports the domain part of every user ID issued here.
func (d *Directory) ServerName() string {
	return d.serverName
}

func (d *Directory) userID(localpart string) string {
	return fmt.Sprintf("@%s:%s", localpart, d.serverName)
}

// Login validates the password and issues a fresh access token. An
// unknown localpart registers on first login, this is an in-memory
// directory so there is no out-of-band registration flow.
func (d *Directory) Login(localpart, password string) (string, string, error) {
	localpart = strings.ToLower(localpart)
	if localpart == "" {
		return "", "", matrix.BadRequest(matrix.ErrInvalidParam, "Missing user identifier")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	acct, ok := d.accounts[localpart]
	if !ok {
		acct = &account{
			userID:   d.userID(localpart),
			password: password,
		}
		d.accounts[localpart] = acct
	}
	if acct.password != password {
		return "", "", matrix.BadRequest(matrix.ErrForbidden, "Wrong username or password")
	}

	token := uuid.NewString()
	d.tokens[token] = acct.userID
	return acct.userID, token, nil
}

// Logout invalidates the token. Unknown tokens are a no-op, logging
// out twice is not an error.
func (d *Directory) Logout(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.tokens, token)
}

// UserForToken resolves an access token to the user ID it was issued for.
func (d *Directory) UserForToken(token string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	userID, ok := d.tokens[token]
	return userID, ok
}

func (d *Directory) findByUserID(userID string) *account {
	for _, acct := range d.accounts {
		if acct.userID == userID {
			return acct
		}
	}
	return nil
}

// Displayname reports the display name of the given user.
func (d *Directory) Displayname(userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acct := d.findByUserID(userID)
	if acct == nil {
		return "", matrix.BadRequest(matrix.ErrNotFound, "Profile was not found")
	}
	return acct.displayname, nil
}

// SetDisplayname updates the display name of the given user.
func (d *Directory) SetDisplayname(userID, displayname string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	acct := d.findByUserID(userID)
	if acct == nil {
		return matrix.BadRequest(matrix.ErrNotFound, "Profile was not found")
	}
	acct.displayname = displayname
	d.advance()
	return nil
}

// JoinedRooms reports the rooms the user holds membership in, in no
// particular order.
func (d *Directory) JoinedRooms(userID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]string, 0, len(d.joined[userID]))
	for roomID := range d.joined[userID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

func (d *Directory) isJoined(userID, roomID string) bool {
	_, ok := d.joined[userID][roomID]
	return ok
}

// StateEvent is one entry of a room's current state.
type StateEvent struct {
	Type     string          `json:"type"`
	StateKey string          `json:"state_key"`
	Content  json.RawMessage `json:"content"`
	RoomID   string          `json:"room_id"`
	Sender   string          `json:"sender"`
}

// RoomState reports the full current state of the room. The caller
// must be joined.
func (d *Directory) RoomState(userID, roomID string) ([]StateEvent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.isJoined(userID, roomID) {
		return nil, matrix.BadRequest(matrix.ErrForbidden, "You don't have permission to view the room state.")
	}

	events := make([]StateEvent, 0, len(d.state[roomID]))
	for sk, content := range d.state[roomID] {
		events = append(events, StateEvent{
			Type:     sk.eventType,
			StateKey: sk.key,
			Content:  content,
			RoomID:   roomID,
			Sender:   userID,
		})
	}
	return events, nil
}

// State reports the content of a single state event.
func (d *Directory) State(userID, roomID, eventType, key string) (json.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.isJoined(userID, roomID) {
		return nil, matrix.BadRequest(matrix.ErrForbidden, "You don't have permission to view the room state.")
	}

	content, ok := d.state[roomID][stateKey{eventType: eventType, key: key}]
	if !ok {
		return nil, matrix.BadRequest(matrix.ErrNotFound, "State event not found.")
	}
	return content, nil
}

// PutState stores the content of a single state event and returns a
// fresh event ID. The sender implicitly joins the room, the directory
// has no separate join flow.
func (d *Directory) PutState(userID, roomID, eventType, key string, content json.RawMessage) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.joined[userID] == nil {
		d.joined[userID] = make(map[string]struct{})
	}
	d.joined[userID][roomID] = struct{}{}

	if d.state[roomID] == nil {
		d.state[roomID] = make(map[stateKey]json.RawMessage)
	}
	d.state[roomID][stateKey{eventType: eventType, key: key}] = content

	d.advance()
	return fmt.Sprintf("$%s:%s", uuid.NewString(), d.serverName), nil
}

// NextBatch reports the current sync position.
func (d *Directory) NextBatch() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return fmt.Sprintf("s%d", d.generation)
}

// Rotation exposes the notifier sync requests park on.
func (d *Directory) Rotation() *lifecycle.Notifier {
	return d.rotation
}

// advance bumps the sync position and wakes parked sync requests.
// Callers must hold the write lock.
func (d *Directory) advance() {
	d.generation += 1
	if d.rotation != nil {
		d.rotation.Notify()
	}
}
