// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/ui/styles"
)

// =============================================================================
// CONNECTION STATUS BADGE
// =============================================================================

// StatusBadge renders the connection state with a shape and a color.
func StatusBadge(theme *styles.Theme, connected bool) string {
	if connected {
		return theme.BadgeConnected.Render(styles.StatusIndicators.Connected + " Connected")
	}
	return theme.BadgeDisconnected.Render(styles.StatusIndicators.Disconnected + " Disconnected")
}

// =============================================================================
// HEADER
// =============================================================================

// Header is the single-line title bar of the chat screen.
type Header struct {
	Room      string
	UserName  string
	Connected bool
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a header for room.
func NewHeader(theme *styles.Theme, room string) *Header {
	return &Header{Room: room, Width: 80, theme: theme}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header: brand and room on the left, user and connection
// badge on the right. The user label is dropped first when space runs out.
func (h *Header) View() string {
	t := h.theme

	left := t.HeaderBrand.Render("huddle") + " " + t.HeaderRoom.Render("#"+h.Room)
	badge := StatusBadge(t, h.Connected)

	right := badge
	if h.UserName != "" {
		withUser := t.HeaderUser.Render(h.UserName) + " " + badge
		if lipgloss.Width(left)+lipgloss.Width(withUser)+t.Header.GetHorizontalFrameSize()+1 <= h.Width {
			right = withUser
		}
	}

	inner := h.Width - t.Header.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + lipgloss.NewStyle().Width(gap).Render("") + right

	return t.Header.Width(h.Width).MaxWidth(h.Width).Render(line)
}
