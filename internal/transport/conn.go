// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/huddle/internal/logging"
	"github.com/jeranaias/huddle/internal/protocol"
)

// ClientIDHeader carries the per-connection client id on the handshake.
const ClientIDHeader = "X-Client-ID"

// Conn is a supervised WebSocket connection to the chat server.
type Conn struct {
	opts     Options
	log      zerolog.Logger
	clientID string
	dialer   *websocket.Dialer

	events    chan protocol.Event
	connected atomic.Bool

	mu       sync.Mutex
	outbound chan []byte // queue of the live socket; nil while disconnected
	opened   bool
	closed   bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates an unopened connection.
func New(opts Options, logger zerolog.Logger) *Conn {
	opts = opts.withDefaults()
	id := uuid.NewString()

	return &Conn{
		opts:     opts,
		log:      logger.With().Str(logging.FieldComponent, "transport").Str(logging.FieldClientID, id).Logger(),
		clientID: id,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		events: make(chan protocol.Event, opts.EventBuffer),
	}
}

// ClientID returns the random id sent with every handshake.
func (c *Conn) ClientID() string {
	return c.clientID
}

// URL returns the endpoint this connection dials.
func (c *Conn) URL() string {
	return c.opts.URL
}

// Connected reports whether a socket is currently open.
func (c *Conn) Connected() bool {
	return c.connected.Load()
}

// Events returns the inbound event channel. It is closed by Close.
func (c *Conn) Events() <-chan protocol.Event {
	return c.events
}

// Open starts the connection supervisor and returns immediately. The outcome
// of the first dial arrives on Events as Connect or ConnectError. Cancelling
// ctx stops the supervisor; Close must still be called.
func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.opened {
		return ErrAlreadyOpen
	}
	c.opened = true

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.supervise(runCtx)
	return nil
}

// Close tears the connection down and waits for its goroutines. It is safe to
// call more than once; outbound actions return ErrClosed afterwards.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.connected.Store(false)
	close(c.events)
	c.log.Debug().Msg("connection closed")
	return nil
}

// =============================================================================
// OUTBOUND ACTIONS
// =============================================================================

// SendJoin asks the server to join the chat under name.
func (c *Conn) SendJoin(name string) error {
	return c.send(protocol.EventJoinChat, protocol.JoinRequest{Name: name})
}

// SendMessage posts content to roomID. There is no local echo; the message
// appears when the server broadcasts it back.
func (c *Conn) SendMessage(content, roomID string) error {
	return c.send(protocol.EventSendMessage, protocol.SendMessageRequest{Content: content, RoomID: roomID})
}

// RequestRoster asks the server for a users_list snapshot.
func (c *Conn) RequestRoster() error {
	return c.send(protocol.EventGetUsers, nil)
}

func (c *Conn) send(event string, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.outbound == nil {
		return ErrNotConnected
	}

	select {
	case c.outbound <- frame:
		c.log.Debug().Str(logging.FieldEvent, event).Msg("queued")
		return nil
	default:
		return ErrSendQueueFull
	}
}

// =============================================================================
// SUPERVISOR
// =============================================================================

// supervise dials, serves and redials until ctx ends or the reconnect budget
// is spent.
func (c *Conn) supervise(ctx context.Context) {
	defer c.wg.Done()

	limiter := rate.NewLimiter(rate.Every(c.opts.ReconnectDelay), 1)
	failures := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		log := c.log.With().Int(logging.FieldAttempt, failures).Logger()
		log.Debug().Str(logging.FieldURL, c.opts.URL).Msg("dialing")

		ws, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			log.Warn().Err(err).Msg("connect failed")
			c.emit(ctx, protocol.ConnectError{Reason: err, Final: c.spent(failures)})
		} else {
			failures = 0
			log.Info().Msg("connected")

			reason := c.serve(ctx, ws)
			if ctx.Err() != nil {
				return
			}
			failures++
			log.Warn().Err(reason).Msg("disconnected")
			c.emit(ctx, protocol.Disconnect{Reason: reason, Final: c.spent(failures)})
		}

		if c.spent(failures) {
			c.log.Error().Int(logging.FieldAttempt, failures).Msg("giving up on reconnect")
			return
		}
	}
}

// spent reports whether failures exhausts the reconnect budget.
func (c *Conn) spent(failures int) bool {
	return c.opts.ReconnectAttempts >= 0 && failures > c.opts.ReconnectAttempts
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set(ClientIDHeader, c.clientID)

	ws, resp, err := c.dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", c.opts.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	return ws, nil
}

// serve runs the pumps for one socket and returns why it ended.
func (c *Conn) serve(ctx context.Context, ws *websocket.Conn) error {
	out := make(chan []byte, c.opts.SendQueueSize)

	c.mu.Lock()
	c.outbound = out
	c.connected.Store(true)
	c.mu.Unlock()

	c.emit(ctx, protocol.Connect{})

	sessCtx, cancel := context.WithCancel(ctx)
	readErr := make(chan error, 1)
	writeErr := make(chan error, 1)

	go func() { readErr <- c.readPump(sessCtx, ws) }()
	go func() { writeErr <- c.writePump(sessCtx, ws, out) }()

	var reason error
	select {
	case reason = <-readErr:
		cancel()
		<-writeErr
	case reason = <-writeErr:
		cancel()
		ws.Close()
		<-readErr
	case <-ctx.Done():
		cancel()
		<-writeErr // sends the close frame
		ws.Close()
		<-readErr
		reason = ctx.Err()
	}
	cancel()
	ws.Close()

	c.mu.Lock()
	c.outbound = nil
	c.connected.Store(false)
	c.mu.Unlock()

	return reason
}

// readPump decodes frames into events until the socket fails.
func (c *Conn) readPump(ctx context.Context, ws *websocket.Conn) error {
	ws.SetReadLimit(c.opts.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("server closed the connection")
			}
			return err
		}
		ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))

		ev, err := protocol.Decode(frame)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownEvent) {
				c.log.Debug().Err(err).Msg("skipping event")
			} else {
				c.log.Warn().Err(err).Msg("malformed frame")
			}
			continue
		}

		if bad := protocol.MalformedTimestamps(ev); len(bad) > 0 {
			c.log.Warn().Str(logging.FieldEvent, ev.Name()).Strs("timestamps", bad).Msg("unparseable timestamps shown as unknown time")
		}
		c.log.Trace().Str(logging.FieldEvent, ev.Name()).Msg("received")
		if !c.emit(ctx, ev) {
			return ctx.Err()
		}
	}
}

// writePump is the socket's only writer. On cancellation it sends a close
// frame before returning.
func (c *Conn) writePump(ctx context.Context, ws *websocket.Conn, out <-chan []byte) error {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
			return ctx.Err()

		case frame := <-out:
			ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return err
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// emit delivers an event unless ctx ends first.
func (c *Conn) emit(ctx context.Context, ev protocol.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
