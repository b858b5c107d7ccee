// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/export"
	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/protocol"
	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/transport"
	"github.com/jeranaias/huddle/internal/ui/components"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSender struct {
	joins      []string
	sent       []string
	rosterReqs int
	err        error
}

func (f *fakeSender) SendJoin(name string) error {
	if f.err != nil {
		return f.err
	}
	f.joins = append(f.joins, name)
	return nil
}

func (f *fakeSender) SendMessage(content, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, content)
	return nil
}

func (f *fakeSender) RequestRoster() error {
	if f.err != nil {
		return f.err
	}
	f.rosterReqs++
	return nil
}

type fakeConn struct {
	up bool
}

func (c *fakeConn) Connected() bool { return c.up }

// =============================================================================
// HELPERS
// =============================================================================

type fixture struct {
	sender *fakeSender
	conn   *fakeConn
	events chan protocol.Event
	dir    string
}

func newModel(t *testing.T) (Model, *fixture) {
	t.Helper()
	fx := &fixture{
		sender: &fakeSender{},
		conn:   &fakeConn{up: true},
		events: make(chan protocol.Event, 1),
		dir:    t.TempDir(),
	}
	sess := session.New(fx.sender, session.Options{Logger: zerolog.Nop()})
	m := New(Options{
		Session:   sess,
		Events:    fx.events,
		Conn:      fx.conn,
		Config:    config.Default(),
		ExportDir: fx.dir,
		Logger:    zerolog.Nop(),
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, fx
}

func joinedModel(t *testing.T) (Model, *fixture) {
	t.Helper()
	m, fx := newModel(t)
	m = step(t, m, EventMsg{Event: protocol.JoinConfirmed{
		User:    model.User{ID: "u1", Name: "Ana"},
		Message: "Welcome Ana",
	}})
	require.True(t, m.Session().Joined())
	return m, fx
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func stepCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func toastTexts(m Model) []string {
	var out []string
	for _, t := range m.Toasts() {
		out = append(out, t.Text)
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// EVENT LOOP
// =============================================================================

func TestWaitForEvent(t *testing.T) {
	events := make(chan protocol.Event, 1)
	events <- protocol.Connect{}
	assert.Equal(t, EventMsg{Event: protocol.Connect{}}, WaitForEvent(events)())

	close(events)
	assert.Equal(t, EventsClosedMsg{}, WaitForEvent(events)())

	assert.Nil(t, WaitForEvent(nil))
}

func TestEventMsgReissuesWait(t *testing.T) {
	m, fx := newModel(t)
	_, cmd := stepCmd(t, m, EventMsg{Event: protocol.Connect{}})
	require.NotNil(t, cmd)

	// The batched wait picks up the next event.
	fx.events <- protocol.Welcome{Message: "hi"}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if ok {
		var got []tea.Msg
		for _, c := range batch {
			if c != nil {
				got = append(got, c())
			}
		}
		assert.Contains(t, got, EventMsg{Event: protocol.Welcome{Message: "hi"}})
	} else {
		assert.Equal(t, EventMsg{Event: protocol.Welcome{Message: "hi"}}, msg)
	}
}

// =============================================================================
// JOIN
// =============================================================================

func TestJoinFlow(t *testing.T) {
	m, fx := newModel(t)
	assert.Contains(t, m.View(), "Pick a name")

	m = step(t, m, keyRunes("Ana"))
	m, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = step(t, m, cmd())

	assert.Equal(t, []string{"Ana"}, fx.sender.joins)
	assert.True(t, m.join.Joining())

	m = step(t, m, EventMsg{Event: protocol.JoinConfirmed{
		User:    model.User{ID: "u1", Name: "Ana"},
		Message: "Welcome Ana",
	}})
	assert.True(t, m.Session().Joined())
	assert.False(t, m.join.Joining())
	assert.True(t, m.composer.Enabled())
	assert.Contains(t, toastTexts(m), "Welcome Ana")
	assert.Contains(t, m.View(), "#general")
}

func TestJoinWhileDisconnectedIsSilent(t *testing.T) {
	m, fx := newModel(t)
	fx.sender.err = transport.ErrNotConnected

	m = step(t, m, components.JoinSubmitMsg{Name: "Ana"})
	assert.False(t, m.join.Joining())
	assert.Empty(t, m.Toasts())
}

func TestServerErrorWhileJoiningAllowsRetry(t *testing.T) {
	m, _ := newModel(t)
	m = step(t, m, components.JoinSubmitMsg{Name: "Ana"})
	require.True(t, m.join.Joining())

	m = step(t, m, EventMsg{Event: protocol.ServerError{Message: "Name already taken"}})
	assert.False(t, m.join.Joining())
	assert.False(t, m.Session().Joined())
	assert.Contains(t, toastTexts(m), "Name already taken")
}

// =============================================================================
// MESSAGES
// =============================================================================

func TestSendMessage(t *testing.T) {
	m, fx := joinedModel(t)
	m.composer.SetValue("hello")

	m = step(t, m, components.SendMsg{Content: "hello"})
	assert.Equal(t, []string{"hello"}, fx.sender.sent)
	assert.Empty(t, m.composer.Value())
}

func TestSendWhileDisconnectedKeepsText(t *testing.T) {
	m, fx := joinedModel(t)
	fx.sender.err = transport.ErrNotConnected
	m.composer.SetValue("hello")

	m = step(t, m, components.SendMsg{Content: "hello"})
	assert.Equal(t, "hello", m.composer.Value())
	assert.NotContains(t, toastTexts(m), transport.ErrNotConnected.Error())
}

func TestIncomingMessagesRender(t *testing.T) {
	m, _ := joinedModel(t)
	m = step(t, m, EventMsg{Event: protocol.MessageReceived{Message: model.Message{
		ID: "m1", UserID: "u2", UserName: "Bob", Content: "hey there",
		Type: model.MessageTypeText, Timestamp: model.NewTimestamp(time.Now()),
	}}})

	assert.Contains(t, toastTexts(m), "Bob: hey there")
	assert.Contains(t, m.View(), "hey there")
}

func TestDisconnectDisablesComposer(t *testing.T) {
	m, fx := joinedModel(t)
	fx.conn.up = false
	m = step(t, m, EventMsg{Event: protocol.Disconnect{}})

	assert.False(t, m.composer.Enabled())
	assert.True(t, m.Session().Joined())
	assert.Contains(t, toastTexts(m), "Disconnected from server")

	fx.conn.up = true
	m = step(t, m, EventMsg{Event: protocol.Connect{}})
	assert.True(t, m.composer.Enabled())
}

func TestEventsClosed(t *testing.T) {
	m, fx := joinedModel(t)
	fx.conn.up = false
	m = step(t, m, EventsClosedMsg{})
	assert.True(t, m.eventsDone)
	assert.False(t, m.composer.Enabled())
}

// =============================================================================
// SLASH COMMANDS AND KEYS
// =============================================================================

func TestSlashCommands(t *testing.T) {
	m, fx := joinedModel(t)
	m.showRoster = false

	m = step(t, m, components.SendMsg{Content: "/users"})
	assert.Equal(t, 1, fx.sender.rosterReqs)
	assert.True(t, m.ShowingRoster())
	assert.Empty(t, fx.sender.sent)

	m = step(t, m, components.SendMsg{Content: "/help"})
	assert.True(t, m.ShowingHelp())
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.ShowingHelp())

	m = step(t, m, components.SendMsg{Content: "/nope"})
	assert.Contains(t, strings.Join(toastTexts(m), "\n"), "Unknown command /nope")

	_, cmd := stepCmd(t, m, components.SendMsg{Content: "/quit"})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestDoubleSlashSendsLiteralMessage(t *testing.T) {
	m, fx := joinedModel(t)

	m = step(t, m, components.SendMsg{Content: "//usr/bin is missing"})
	assert.Equal(t, []string{"/usr/bin is missing"}, fx.sender.sent)
	assert.NotContains(t, strings.Join(toastTexts(m), "\n"), "Unknown command")
}

func TestKeyBindings(t *testing.T) {
	m, fx := joinedModel(t)
	before := m.ShowingRoster()

	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, !before, m.ShowingRoster())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, 1, fx.sender.rosterReqs)

	m = step(t, m, keyRunes("?"))
	assert.True(t, m.ShowingHelp())
	m = step(t, m, keyRunes("?"))
	assert.False(t, m.ShowingHelp())

	// With text in the composer, '?' is typed.
	m.composer.SetValue("why")
	m = step(t, m, keyRunes("?"))
	assert.False(t, m.ShowingHelp())
	assert.Equal(t, "why?", m.composer.Value())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, m.ShowingHelp())

	_, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRefreshWhileDisconnectedIsSilent(t *testing.T) {
	m, fx := joinedModel(t)
	fx.sender.err = transport.ErrNotConnected
	before := len(m.Toasts())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Len(t, m.Toasts(), before)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExportWritesTranscript(t *testing.T) {
	m, fx := joinedModel(t)
	m = step(t, m, EventMsg{Event: protocol.MessageReceived{Message: model.Message{
		ID: "m1", UserID: "u1", UserName: "Ana", Content: "hello", Type: model.MessageTypeText,
	}}})

	_, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.NotNil(t, cmd)
	done, ok := cmd().(ExportCompleteMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.True(t, strings.HasPrefix(done.Path, fx.dir))
	assert.True(t, strings.HasSuffix(done.Path, ".html"))

	data, err := os.ReadFile(done.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	m = step(t, m, done)
	assert.Contains(t, toastTexts(m), "Exported to "+done.Path)
}

func TestExportEmptyAndBadFormat(t *testing.T) {
	m, _ := joinedModel(t)

	_, cmd := stepCmd(t, m, components.SendMsg{Content: "/export md"})
	require.NotNil(t, cmd)
	done := cmd().(ExportCompleteMsg)
	assert.ErrorIs(t, done.Err, export.ErrEmptyTranscript)

	_, cmd = stepCmd(t, m, components.SendMsg{Content: "/export pdf"})
	require.NotNil(t, cmd)
	assert.Error(t, cmd().(ExportCompleteMsg).Err)
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func TestConfigReloadAppliesUI(t *testing.T) {
	m, _ := joinedModel(t)
	require.True(t, m.ShowingRoster())

	cfg := config.Default()
	cfg.UI.ShowRoster = false
	m = step(t, m, ConfigReloadedMsg{Config: cfg})

	assert.False(t, m.ShowingRoster())
	assert.Contains(t, toastTexts(m), "Configuration reloaded")
}

