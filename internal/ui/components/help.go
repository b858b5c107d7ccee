// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/ui/styles"
)

// HelpMarkdown is the source of the help overlay.
const HelpMarkdown = `# huddle

## Keys

| Key | Action |
|---|---|
| enter | send message |
| alt+enter | new line |
| tab | show or hide users |
| ctrl+r | refresh users |
| ctrl+e | export transcript (HTML) |
| pgup / pgdn | scroll messages |
| ? / f1 | toggle this help |
| esc | close help, dismiss notices |
| ctrl+c | quit |

## Commands

- ` + "`/users`" + ` refresh the user list
- ` + "`/export [html|json|md]`" + ` save the transcript
- ` + "`/help`" + ` toggle this help
- ` + "`/quit`" + ` leave huddle
- ` + "`//text`" + ` send a message that starts with a slash
`

// HelpOverlay renders HelpMarkdown through glamour. The rendered text is
// cached per width.
type HelpOverlay struct {
	theme    *styles.Theme
	width    int
	rendered string
}

// NewHelpOverlay creates a help overlay.
func NewHelpOverlay(theme *styles.Theme) *HelpOverlay {
	return &HelpOverlay{theme: theme}
}

// View renders the overlay boxed and centered in width x height.
func (h *HelpOverlay) View(width, height int) string {
	wrap := width - 8
	if wrap < 30 {
		wrap = 30
	}
	if wrap > 72 {
		wrap = 72
	}
	if h.rendered == "" || h.width != wrap {
		h.rendered = renderMarkdown(HelpMarkdown, wrap, h.theme.IsDark)
		h.width = wrap
	}

	box := h.theme.HelpBox.Render(strings.TrimSpace(h.rendered))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// renderMarkdown renders md for the terminal, falling back to the raw text if
// glamour cannot build a renderer.
func renderMarkdown(md string, wrap int, dark bool) string {
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
