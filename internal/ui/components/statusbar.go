// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/ui/styles"
)

// Shortcut is a key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// ChatShortcuts are the hints shown on the chat screen.
var ChatShortcuts = []Shortcut{
	{"tab", "users"},
	{"ctrl+r", "refresh"},
	{"ctrl+e", "export"},
	{"pgup/pgdn", "scroll"},
	{"?", "help"},
	{"ctrl+c", "quit"},
}

// RenderStatusBar renders as many shortcuts as fit in width.
func RenderStatusBar(theme *styles.Theme, shortcuts []Shortcut, width int) string {
	inner := width - theme.StatusBar.GetHorizontalFrameSize()

	var parts []string
	used := 0
	for _, s := range shortcuts {
		part := theme.ShortcutKey.Render(s.Key) + " " + theme.ShortcutDesc.Render(s.Desc)
		w := lipgloss.Width(part)
		if used > 0 {
			w += 2
		}
		if inner > 0 && used+w > inner {
			break
		}
		parts = append(parts, part)
		used += w
	}

	bar := theme.StatusBar
	if width > 0 {
		bar = bar.Width(width)
	}
	return bar.Render(strings.Join(parts, "  "))
}
