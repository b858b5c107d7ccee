// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/protocol"
	"github.com/jeranaias/huddle/internal/transport"
)

// =============================================================================
// CHAT HUB
// =============================================================================

// hub is an in-process chat server that broadcasts to every joined client.
type hub struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	history []model.Message
	nextID  int
	sends   int
}

type hubClient struct {
	ws   *websocket.Conn
	wmu  sync.Mutex
	user *model.User
}

func newHub(t *testing.T) *hub {
	h := &hub{clients: make(map[*hubClient]struct{})}
	h.srv = httptest.NewServer(http.HandlerFunc(h.handle))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *hub) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *hub) sendCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sends
}

func (h *hub) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &hubClient{ws: ws}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		ws.Close()
		if c.user != nil {
			h.broadcast(protocol.EventUserLeft, protocol.UserLeft{User: *c.user})
		}
	}()

	c.write(protocol.EventConnected, protocol.Welcome{Message: "welcome"})

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			continue
		}
		switch env.Event {
		case protocol.EventJoinChat:
			var req protocol.JoinRequest
			json.Unmarshal(env.Data, &req)
			h.join(c, req.Name)
		case protocol.EventSendMessage:
			var req protocol.SendMessageRequest
			json.Unmarshal(env.Data, &req)
			h.post(c, req)
		case protocol.EventGetUsers:
			c.write(protocol.EventUsersList, protocol.RosterSnapshot{Users: h.roster()})
		}
	}
}

func (h *hub) join(c *hubClient, name string) {
	h.mu.Lock()
	h.nextID++
	user := model.User{ID: fmt.Sprintf("u%d", h.nextID), Name: name, IsActive: true, JoinedAt: model.NewTimestamp(time.Now())}
	c.user = &user
	recent := append([]model.Message(nil), h.history...)
	h.mu.Unlock()

	c.write(protocol.EventJoinedChat, protocol.JoinConfirmed{User: user, Message: "Welcome " + name})
	c.write(protocol.EventRecentMessages, protocol.HistorySnapshot{Messages: recent})
	h.broadcast(protocol.EventUserJoined, protocol.UserJoined{User: user})
	roster := h.roster()
	h.broadcast(protocol.EventUsersUpdated, protocol.RosterUpdated{Users: roster, Count: len(roster)})
}

func (h *hub) post(c *hubClient, req protocol.SendMessageRequest) {
	h.mu.Lock()
	h.sends++
	if c.user == nil {
		h.mu.Unlock()
		c.write(protocol.EventError, protocol.ServerError{Message: "join first"})
		return
	}
	h.nextID++
	msg := model.Message{
		ID:        fmt.Sprintf("m%d", h.nextID),
		UserID:    c.user.ID,
		UserName:  c.user.Name,
		Content:   req.Content,
		Type:      model.MessageTypeText,
		Timestamp: model.NewTimestamp(time.Now()),
		RoomID:    req.RoomID,
	}
	h.history = append(h.history, msg)
	h.mu.Unlock()

	h.broadcast(protocol.EventNewMessage, protocol.MessageReceived{Message: msg})
}

func (h *hub) roster() []model.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	var users []model.User
	for c := range h.clients {
		if c.user != nil {
			users = append(users, *c.user)
		}
	}
	return users
}

func (h *hub) broadcast(event string, payload any) {
	h.mu.Lock()
	targets := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		if c.user != nil {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()
	for _, c := range targets {
		c.write(event, payload)
	}
}

func (c *hubClient) write(event string, payload any) {
	frame, _ := protocol.Encode(event, payload)
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.ws.WriteMessage(websocket.TextMessage, frame)
}

// =============================================================================
// HELPERS
// =============================================================================

func dialHub(t *testing.T, h *hub) *transport.Conn {
	t.Helper()
	conn := newHubConn(t, h)
	require.NoError(t, conn.Open(testContext(t)))
	waitFor[protocol.Connect](t, conn.Events(), nil)
	return conn
}

// newHubConn returns an unopened connection to h.
func newHubConn(t *testing.T, h *hub) *transport.Conn {
	t.Helper()
	opts := transport.DefaultOptions()
	opts.URL = h.url()
	opts.ReconnectAttempts = 0
	opts.SendQueueSize = 512
	conn := transport.New(opts, zerolog.Nop())
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitFor drains events until one of type T arrives. Every event seen on the
// way, including the match, is handed to apply when it is non-nil.
func waitFor[T protocol.Event](t *testing.T, events <-chan protocol.Event, apply func(protocol.Event)) T {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "events closed")
			if apply != nil {
				apply(ev)
			}
			if match, ok := ev.(T); ok {
				return match
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}
