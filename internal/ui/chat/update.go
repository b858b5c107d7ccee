// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/huddle/internal/logging"
	"github.com/jeranaias/huddle/internal/protocol"
	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/transport"
	"github.com/jeranaias/huddle/internal/ui/components"
	"github.com/jeranaias/huddle/internal/util"
)

// Update is the single place chat state changes in the TUI.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case EventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, WaitForEvent(m.events))

	case EventsClosedMsg:
		m.eventsDone = true
		m.syncConnection()
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Tick(msg.Time)
		m.layout()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.join, cmd = m.join.Update(msg)
		return m, cmd

	case components.JoinSubmitMsg:
		return m, m.submitJoin(msg.Name)

	case components.SendMsg:
		return m, m.submitMessage(msg.Content)

	case ConfigReloadedMsg:
		if msg.Config != nil {
			m.applyUI(msg.Config.UI)
			m.layout()
			m.log.Info().Msg("config reloaded")
			m.pushNotices(session.Notice{Kind: session.NoticeInfo, Text: "Configuration reloaded"})
		}
		return m, nil

	case ConfigErrorMsg:
		m.log.Warn().Err(msg.Err).Msg("config reload failed")
		m.pushNotices(session.Notice{Kind: session.NoticeWarning, Text: "Config not reloaded: " + msg.Err.Error()})
		return m, nil

	case ExportCompleteMsg:
		if msg.Err != nil {
			m.pushNotices(session.Notice{Kind: session.NoticeError, Text: "Export failed: " + msg.Err.Error()})
		} else {
			m.pushNotices(session.Notice{Kind: session.NoticeSuccess, Text: "Exported to " + msg.Path})
		}
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// =============================================================================
// EVENTS
// =============================================================================

func (m *Model) handleEvent(ev protocol.Event) tea.Cmd {
	m.log.Debug().Str(logging.FieldEvent, ev.Name()).Msg("applying event")

	wasJoined := m.sess.Joined()
	notices := m.sess.Apply(ev)
	m.pushNotices(notices...)

	var cmd tea.Cmd
	switch ev.(type) {
	case protocol.JoinConfirmed:
		m.join.SetJoining(false)
	case protocol.ServerError, protocol.Disconnect, protocol.ConnectError:
		if m.join.Joining() {
			// The join went unanswered; let the user try again.
			cmd = m.join.SetJoining(false)
		}
	}

	m.syncSession()
	m.syncConnection()
	if !wasJoined && m.sess.Joined() {
		m.list.GotoBottom()
		m.log.Info().Msg("joined chat")
	}
	m.layout()
	return cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) submitJoin(name string) tea.Cmd {
	err := m.sess.JoinChat(name)
	switch {
	case err == nil:
		return m.join.SetJoining(true)
	case errors.Is(err, transport.ErrNotConnected):
		m.log.Debug().Msg("join dropped while disconnected")
		return nil
	default:
		m.pushNotices(session.NoticeFor(err))
		return nil
	}
}

func (m *Model) submitMessage(content string) tea.Cmd {
	content, isCommand := util.SplitCommand(content)
	if isCommand {
		m.composer.Reset()
		return m.handleCommand(content)
	}

	err := m.sess.SendMessage(content)
	var ve *session.ValidationError
	switch {
	case err == nil:
		m.composer.Reset()
	case errors.Is(err, transport.ErrNotConnected):
		m.log.Debug().Msg("message dropped while disconnected")
	case errors.As(err, &ve):
		m.composer.SetError(ve.Message)
	default:
		m.pushNotices(session.NoticeFor(err))
	}
	return nil
}

func (m *Model) refreshUsers() {
	if err := m.sess.RefreshUsers(); err != nil && !errors.Is(err, transport.ErrNotConnected) {
		m.pushNotices(session.NoticeFor(err))
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Dismiss) {
			m.showHelp = false
			m.layout()
		}
		return m, nil
	}

	if !m.sess.Joined() {
		if msg.Type == tea.KeyF1 {
			m.showHelp = true
			return m, nil
		}
		var cmd tea.Cmd
		m.join, cmd = m.join.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Help) && (msg.Type == tea.KeyF1 || m.composer.Value() == ""):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.ToggleRoster):
		m.showRoster = !m.showRoster
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.refreshUsers()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd("html")

	case key.Matches(msg, m.keys.PageUp):
		m.list.PageUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.list.PageDown()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.DismissAll()
		m.layout()
		return m, nil
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}
