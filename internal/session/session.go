// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/huddle/internal/logging"
	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/protocol"
)

// DefaultPreviewLength is the rune budget of a new-message notice preview.
const DefaultPreviewLength = 50

// Sender is the outbound half of the transport.
type Sender interface {
	SendJoin(name string) error
	SendMessage(content, roomID string) error
	RequestRoster() error
}

// Recorder receives every message the session sees. The archive implements it.
type Recorder interface {
	Save(msg model.Message) error
	SaveAll(msgs []model.Message) error
}

// Options configures a Session.
type Options struct {
	// Room is attached to outgoing messages. Empty means model.DefaultRoom.
	Room string
	// PreviewLength bounds the preview in new-message notices.
	PreviewLength int
	// Recorder, if set, is handed every received message.
	Recorder Recorder
	Logger   zerolog.Logger
}

// Session is the chat view-model. It is not safe for concurrent use.
type Session struct {
	sender   Sender
	room     string
	preview  int
	recorder Recorder
	log      zerolog.Logger

	user     *model.User
	roster   map[string]model.User
	messages []model.Message
}

// New creates an unjoined session that sends through sender.
func New(sender Sender, opts Options) *Session {
	if opts.Room == "" {
		opts.Room = model.DefaultRoom
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	return &Session{
		sender:   sender,
		room:     opts.Room,
		preview:  opts.PreviewLength,
		recorder: opts.Recorder,
		log:      opts.Logger.With().Str(logging.FieldComponent, "session").Logger(),
		roster:   make(map[string]model.User),
	}
}

// =============================================================================
// INBOUND
// =============================================================================

// Apply projects one inbound event onto the state and returns the notices it
// produces.
func (s *Session) Apply(ev protocol.Event) []Notice {
	switch e := ev.(type) {
	case protocol.JoinConfirmed:
		user := e.User
		s.user = &user
		s.log.Info().Str(logging.FieldUserID, user.ID).Str(logging.FieldUserName, user.Name).Msg("joined chat")
		text := e.Message
		if text == "" {
			text = fmt.Sprintf("Welcome to the chat, %s!", user.Name)
		}
		return []Notice{success(text)}

	case protocol.MessageReceived:
		s.messages = append(s.messages, e.Message)
		s.record(e.Message)
		if s.user != nil && e.UserID != s.user.ID {
			return []Notice{info(fmt.Sprintf("%s: %s", e.UserName, e.Preview(s.preview)))}
		}
		return nil

	case protocol.UserJoined:
		if s.user != nil && e.User.ID != s.user.ID {
			return []Notice{success(fmt.Sprintf("%s joined the chat", e.User.Name))}
		}
		return nil

	case protocol.UserLeft:
		return []Notice{info(fmt.Sprintf("%s left the chat", e.User.Name))}

	case protocol.RosterUpdated:
		s.replaceRoster(e.Users)
		return nil

	case protocol.RosterSnapshot:
		s.replaceRoster(e.Users)
		return nil

	case protocol.HistorySnapshot:
		s.messages = append([]model.Message(nil), e.Messages...)
		s.recordAll(e.Messages)
		return nil

	case protocol.ServerError:
		s.log.Warn().Str("server_message", e.Message).Msg("server error")
		return []Notice{failure(e.Message)}

	case protocol.Welcome:
		s.log.Debug().Str("server_message", e.Message).Msg("server welcome")
		return nil

	case protocol.Connect:
		return []Notice{success("Connected to server")}

	case protocol.Disconnect:
		return []Notice{failure("Disconnected from server")}

	case protocol.ConnectError:
		return []Notice{failure("Connection error")}
	}

	s.log.Debug().Str(logging.FieldEvent, ev.Name()).Msg("unhandled event")
	return nil
}

func (s *Session) replaceRoster(users []model.User) {
	roster := make(map[string]model.User, len(users))
	for _, u := range users {
		roster[u.ID] = u
	}
	s.roster = roster
}

func (s *Session) record(msg model.Message) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Save(msg); err != nil {
		s.log.Warn().Err(err).Str(logging.FieldMessage, msg.ID).Msg("archive write failed")
	}
}

func (s *Session) recordAll(msgs []model.Message) {
	if s.recorder == nil || len(msgs) == 0 {
		return
	}
	if err := s.recorder.SaveAll(msgs); err != nil {
		s.log.Warn().Err(err).Int("count", len(msgs)).Msg("archive write failed")
	}
}

// =============================================================================
// OUTBOUND
// =============================================================================

// JoinChat asks the server to join under name. Transport errors are returned
// unchanged.
func (s *Session) JoinChat(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return s.sender.SendJoin(name)
}

// SendMessage posts content to the session room. It requires a session user.
func (s *Session) SendMessage(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return &ValidationError{Field: "message", Message: "message cannot be empty"}
	}
	if s.user == nil {
		return &ValidationError{Field: "message", Message: "you must join the chat first"}
	}
	return s.sender.SendMessage(content, s.room)
}

// RefreshUsers requests a roster snapshot.
func (s *Session) RefreshUsers() error {
	return s.sender.RequestRoster()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// CurrentUser returns the session user and whether one is set.
func (s *Session) CurrentUser() (model.User, bool) {
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Joined reports whether the join has been confirmed.
func (s *Session) Joined() bool {
	return s.user != nil
}

// Room returns the room id used for outgoing messages.
func (s *Session) Room() string {
	return s.room
}

// Messages returns a copy of the message log in arrival order.
func (s *Session) Messages() []model.Message {
	return append([]model.Message(nil), s.messages...)
}

// Roster returns the roster with the session user first, then by name.
func (s *Session) Roster() []model.User {
	users := make([]model.User, 0, len(s.roster))
	for _, u := range s.roster {
		users = append(users, u)
	}
	currentID := ""
	if s.user != nil {
		currentID = s.user.ID
	}
	SortRoster(users, currentID)
	return users
}

// RosterCount returns the number of distinct users in the roster.
func (s *Session) RosterCount() int {
	return len(s.roster)
}

// SortRoster orders users in place: currentID first, the rest by
// case-insensitive name, ties broken by id.
func SortRoster(users []model.User, currentID string) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if (a.ID == currentID) != (b.ID == currentID) {
			return a.ID == currentID
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}
