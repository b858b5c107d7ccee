// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/ui/components"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight    = 1
	statusBarHeight = 1
	minBodyHeight   = 3
)

// rosterWidth returns the roster column width, or 0 when it is hidden or
// does not fit.
func (m *Model) rosterWidth() int {
	if !m.showRoster {
		return 0
	}
	return m.theme.RosterWidth()
}

func (m *Model) toastView() string {
	return components.RenderToastStack(m.toasts.Toasts(), m.width, m.now())
}

// bodyHeight is what remains for the message list after the fixed rows.
func (m *Model) bodyHeight() int {
	h := m.height - headerHeight - statusBarHeight - m.composer.Height()
	if toasts := m.toastView(); toasts != "" {
		h -= lipgloss.Height(toasts)
	}
	if h < minBodyHeight {
		h = minBodyHeight
	}
	return h
}

// layout resizes every widget to the current window.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.composer.SetWidth(m.width)
	m.list.SetSize(m.width-m.rosterWidth(), m.bodyHeight())
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the join screen or the chat screen.
func (m Model) View() string {
	toasts := m.toastView()

	if !m.sess.Joined() {
		bodyH := m.height - headerHeight - lipgloss.Height(toasts)
		var body string
		if m.showHelp {
			body = m.help.View(m.width, bodyH)
		} else {
			body = m.join.View(m.width, bodyH)
		}
		return joinRows(m.header.View(), body, toasts)
	}

	bodyH := m.bodyHeight()
	var body string
	switch {
	case m.showHelp:
		body = m.help.View(m.width, bodyH)
	case m.rosterWidth() > 0:
		users := m.sess.Roster()
		var currentID string
		if u, ok := m.sess.CurrentUser(); ok {
			currentID = u.ID
		}
		roster := components.RenderRoster(m.theme, users, currentID, m.now(), m.rosterWidth(), bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), roster)
	default:
		body = m.list.View()
	}

	return joinRows(
		m.header.View(),
		body,
		toasts,
		m.composer.View(),
		components.RenderStatusBar(m.theme, components.ChatShortcuts, m.width),
	)
}

// joinRows stacks non-empty rows.
func joinRows(rows ...string) string {
	kept := rows[:0:0]
	for _, r := range rows {
		if r != "" {
			kept = append(kept, r)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, kept...)
}
