// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/logging"
	"github.com/jeranaias/huddle/internal/protocol"
	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/ui/components"
	"github.com/jeranaias/huddle/internal/ui/styles"
)

// Connection reports the live state of the transport.
type Connection interface {
	Connected() bool
}

// Options wires the root model to the rest of the client.
type Options struct {
	Session *session.Session
	Events  <-chan protocol.Event
	Conn    Connection
	Config  *config.Config
	// ExportDir is where Ctrl+E and /export write transcripts.
	ExportDir string
	Logger    zerolog.Logger
}

// Model is the root Bubble Tea model. It shows the join screen until the
// server confirms the join, then the chat screen.
type Model struct {
	sess   *session.Session
	events <-chan protocol.Event
	conn   Connection
	log    zerolog.Logger
	keys   KeyMap
	theme  *styles.Theme
	now    func() time.Time

	ui        config.UIConfig
	exportDir string

	join     components.JoinForm
	composer components.Composer
	list     components.MessageList
	header   *components.Header
	help     *components.HelpOverlay
	toasts   *components.ToastStack

	width      int
	height     int
	showRoster bool
	showHelp   bool
	eventsDone bool
	lastCount  int
}

// New creates the root model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	theme := styles.NewTheme()
	m := Model{
		sess:      opts.Session,
		events:    opts.Events,
		conn:      opts.Conn,
		log:       opts.Logger.With().Str(logging.FieldComponent, "tui").Logger(),
		keys:      DefaultKeyMap(),
		theme:     theme,
		now:       time.Now,
		ui:        cfg.UI,
		exportDir: opts.ExportDir,
		join:      components.NewJoinForm(theme, cfg.Limits.MaxNameLength),
		composer:  components.NewComposer(theme, cfg.Limits.MaxMessageLength),
		list:      components.NewMessageList(theme, 80, 20),
		header:    components.NewHeader(theme, opts.Session.Room()),
		help:      components.NewHelpOverlay(theme),
		toasts:    components.NewToastStack(),
		width:     80,
		height:    24,
	}
	m.applyUI(cfg.UI)
	m.syncConnection()
	return m
}

// Init starts the event loop and the toast ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForEvent(m.events),
		components.ToastTickCmd(),
	)
}

// Session returns the underlying view-model.
func (m Model) Session() *session.Session {
	return m.sess
}

// ShowingRoster reports whether the user panel is visible.
func (m Model) ShowingRoster() bool {
	return m.showRoster
}

// ShowingHelp reports whether the help overlay is open.
func (m Model) ShowingHelp() bool {
	return m.showHelp
}

// Toasts returns the visible notices, newest first.
func (m Model) Toasts() []components.Toast {
	return m.toasts.Toasts()
}

// =============================================================================
// STATE SYNC
// =============================================================================

func (m *Model) connected() bool {
	return m.conn != nil && m.conn.Connected()
}

// syncConnection updates everything that depends on the connection state.
func (m *Model) syncConnection() {
	connected := m.connected()
	m.header.Connected = connected
	m.composer.SetEnabled(connected && m.sess.Joined())
}

// syncSession copies session state into the widgets.
func (m *Model) syncSession() {
	if user, ok := m.sess.CurrentUser(); ok {
		m.header.UserName = user.Name
		m.list.SetCurrentUser(user.ID)
	}
	msgs := m.sess.Messages()
	m.list.SetMessages(msgs)
	m.lastCount = len(msgs)
}

// applyUI applies the live-reloadable ui settings.
func (m *Model) applyUI(ui config.UIConfig) {
	m.ui = ui
	m.showRoster = ui.ShowRoster
	m.list.SetDisplay(ui.ShowTimestamps, ui.Hyperlinks)
}

func (m *Model) pushNotices(notices ...session.Notice) {
	if len(notices) > 0 {
		m.toasts.Push(m.now(), notices...)
	}
}
