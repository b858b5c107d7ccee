// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/huddle/internal/model"
)

// ErrUnknownEvent is returned by Decode for an event name outside the
// inbound contract.
var ErrUnknownEvent = errors.New("unknown event")

// Envelope is the frame-level wrapper around every event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds the frame for an outbound event. A nil payload produces an
// envelope without data.
func Encode(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		env.Data = data
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	return frame, nil
}

// Decode parses an inbound frame into its typed event.
func Decode(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev Event
	switch env.Event {
	case EventConnected:
		ev = &Welcome{}
	case EventJoinedChat:
		ev = &JoinConfirmed{}
	case EventNewMessage:
		ev = &MessageReceived{}
	case EventUserJoined:
		ev = &UserJoined{}
	case EventUserLeft:
		ev = &UserLeft{}
	case EventUsersUpdated:
		ev = &RosterUpdated{}
	case EventUsersList:
		ev = &RosterSnapshot{}
	case EventRecentMessages:
		ev = &HistorySnapshot{}
	case EventError:
		ev = &ServerError{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Event, err)
		}
	}
	return deref(ev), nil
}

// MalformedTimestamps lists the timestamps in ev that did not parse. They
// were decoded as the zero time.
func MalformedTimestamps(ev Event) []string {
	var bad []string
	msg := func(m model.Message) {
		if raw, ok := m.Timestamp.Malformed(); ok {
			bad = append(bad, raw)
		}
	}
	user := func(u model.User) {
		if raw, ok := u.JoinedAt.Malformed(); ok {
			bad = append(bad, raw)
		}
	}

	switch e := ev.(type) {
	case MessageReceived:
		msg(e.Message)
	case HistorySnapshot:
		for _, m := range e.Messages {
			msg(m)
		}
	case JoinConfirmed:
		user(e.User)
	case UserJoined:
		user(e.User)
	case UserLeft:
		user(e.User)
	case RosterUpdated:
		for _, u := range e.Users {
			user(u)
		}
	case RosterSnapshot:
		for _, u := range e.Users {
			user(u)
		}
	}
	return bad
}

// deref returns the value form so consumers switch on value types.
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *Welcome:
		return *e
	case *JoinConfirmed:
		return *e
	case *MessageReceived:
		return *e
	case *UserJoined:
		return *e
	case *UserLeft:
		return *e
	case *RosterUpdated:
		return *e
	case *RosterSnapshot:
		return *e
	case *HistorySnapshot:
		return *e
	case *ServerError:
		return *e
	}
	return ev
}
