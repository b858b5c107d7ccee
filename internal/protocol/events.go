// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import "github.com/jeranaias/huddle/internal/model"

// =============================================================================
// EVENT NAMES
// =============================================================================

// Client to server.
const (
	EventJoinChat    = "join_chat"
	EventSendMessage = "send_message"
	EventGetUsers    = "get_users"
)

// Server to client.
const (
	EventConnected      = "connected"
	EventJoinedChat     = "joined_chat"
	EventNewMessage     = "new_message"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventUsersUpdated   = "users_updated"
	EventUsersList      = "users_list"
	EventRecentMessages = "recent_messages"
	EventError          = "error"
)

// Local only, emitted by the transport.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
)

// =============================================================================
// INBOUND EVENTS
// =============================================================================

// Event is an inbound event. The concrete types below are the only
// implementations.
type Event interface {
	// Name returns the wire (or local) event name.
	Name() string
}

// Welcome is the server's greeting after the socket opens.
type Welcome struct {
	Message string `json:"message"`
}

// JoinConfirmed confirms a join request and carries the session user.
type JoinConfirmed struct {
	User    model.User `json:"user"`
	Message string     `json:"message"`
}

// MessageReceived carries one broadcast chat message.
type MessageReceived struct {
	model.Message
}

// UserJoined announces a participant joining.
type UserJoined struct {
	User       model.User `json:"user"`
	UsersCount int        `json:"users_count"`
}

// UserLeft announces a participant leaving.
type UserLeft struct {
	User       model.User `json:"user"`
	UsersCount int        `json:"users_count"`
}

// RosterUpdated is a roster snapshot pushed after membership changes.
type RosterUpdated struct {
	Users []model.User `json:"users"`
	Count int          `json:"count"`
}

// RosterSnapshot is a roster snapshot sent in reply to get_users.
type RosterSnapshot struct {
	Users []model.User `json:"users"`
}

// HistorySnapshot seeds the message log after joining.
type HistorySnapshot struct {
	Messages []model.Message `json:"messages"`
}

// ServerError is an application error reported by the server.
type ServerError struct {
	Message string `json:"message"`
}

// Connect reports that the socket is open.
type Connect struct{}

// Disconnect reports that an open socket was closed. Final is set when no
// redial will follow.
type Disconnect struct {
	Reason error
	Final  bool
}

// ConnectError reports a failed dial or handshake. Final is set when no
// redial will follow.
type ConnectError struct {
	Reason error
	Final  bool
}

func (Welcome) Name() string         { return EventConnected }
func (JoinConfirmed) Name() string   { return EventJoinedChat }
func (MessageReceived) Name() string { return EventNewMessage }
func (UserJoined) Name() string      { return EventUserJoined }
func (UserLeft) Name() string        { return EventUserLeft }
func (RosterUpdated) Name() string   { return EventUsersUpdated }
func (RosterSnapshot) Name() string  { return EventUsersList }
func (HistorySnapshot) Name() string { return EventRecentMessages }
func (ServerError) Name() string     { return EventError }
func (Connect) Name() string         { return EventConnect }
func (Disconnect) Name() string      { return EventDisconnect }
func (ConnectError) Name() string    { return EventConnectError }

// =============================================================================
// OUTBOUND PAYLOADS
// =============================================================================

// JoinRequest is the join_chat payload.
type JoinRequest struct {
	Name string `json:"name"`
}

// SendMessageRequest is the send_message payload.
type SendMessageRequest struct {
	Content string `json:"content"`
	RoomID  string `json:"room_id"`
}
