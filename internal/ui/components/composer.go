// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/ui/styles"
	"github.com/jeranaias/huddle/internal/util"
)

// =============================================================================
// COMPOSER
// =============================================================================

// ComposerHeight is the number of text rows in the composer.
const ComposerHeight = 3

// SendMsg is emitted when the composer holds a valid message and Enter is
// pressed. Content is trimmed.
type SendMsg struct {
	Content string
}

// Composer is the multi-line message input. Enter sends; Alt+Enter inserts a
// newline. It ignores input while disabled.
type Composer struct {
	area  textarea.Model
	theme *styles.Theme

	maxLen  int
	enabled bool
	err     string
	width   int
}

// NewComposer creates a focused, enabled composer.
func NewComposer(theme *styles.Theme, maxLen int) Composer {
	if maxLen <= 0 {
		maxLen = util.DefaultMaxMessageLength
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0 // counted and enforced by the composer
	ta.SetHeight(ComposerHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	return Composer{area: ta, theme: theme, maxLen: maxLen, enabled: true}
}

// Value returns the raw text.
func (c Composer) Value() string {
	return c.area.Value()
}

// SetValue replaces the text.
func (c *Composer) SetValue(s string) {
	c.area.SetValue(s)
}

// Reset clears the text and error.
func (c *Composer) Reset() {
	c.area.Reset()
	c.err = ""
}

// Err returns the inline error, if any.
func (c Composer) Err() string {
	return c.err
}

// SetError shows an inline error.
func (c *Composer) SetError(msg string) {
	c.err = msg
}

// Enabled reports whether the composer accepts input.
func (c Composer) Enabled() bool {
	return c.enabled
}

// SetEnabled enables or disables input. The text is kept.
func (c *Composer) SetEnabled(enabled bool) {
	c.enabled = enabled
	if enabled {
		c.area.Focus()
	} else {
		c.area.Blur()
	}
}

// SetMaxLength updates the message length limit.
func (c *Composer) SetMaxLength(n int) {
	if n > 0 {
		c.maxLen = n
	}
}

// SetWidth sets the outer width.
func (c *Composer) SetWidth(w int) {
	c.width = w
	inner := w - c.theme.Composer.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}
	c.area.SetWidth(inner)
}

// Height returns the rendered height, including the counter line.
func (c Composer) Height() int {
	return ComposerHeight + c.theme.Composer.GetVerticalFrameSize() + 1
}

// Counter returns the "n/max" label for the current text.
func (c Composer) Counter() string {
	return fmt.Sprintf("%d/%d", util.RuneLen(c.area.Value()), c.maxLen)
}

// Update handles key input. A valid message on Enter produces SendMsg.
func (c Composer) Update(msg tea.Msg) (Composer, tea.Cmd) {
	if !c.enabled {
		return c, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEnter && !k.Alt {
		if err := util.ValidateMessage(c.area.Value(), c.maxLen); err != nil {
			c.err = validationText(err)
			return c, nil
		}
		content := strings.TrimSpace(c.area.Value())
		c.err = ""
		return c, func() tea.Msg { return SendMsg{Content: content} }
	}

	var cmd tea.Cmd
	c.area, cmd = c.area.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		c.err = ""
	}
	return c, cmd
}

// View renders the composer with its counter line.
func (c Composer) View() string {
	t := c.theme

	box := t.Composer
	if !c.enabled {
		box = t.ComposerDisabled
	}
	if c.width > 0 {
		box = box.Width(c.width - box.GetHorizontalBorderSize())
	}

	n := util.RuneLen(c.area.Value())
	counter := t.CharCount
	switch {
	case n > c.maxLen:
		counter = t.CharCountDanger
	case n*10 >= c.maxLen*9:
		counter = t.CharCountWarning
	}

	left := t.ShortcutDesc.Render("enter send, alt+enter newline")
	switch {
	case !c.enabled:
		left = t.WarningStyle.Render(styles.StatusIndicators.Disconnected + " disconnected")
	case c.err != "":
		left = t.ErrorStyle.Render(styles.StatusIndicators.Error + " " + c.err)
	}
	right := counter.Render(c.Counter())

	gap := c.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	status := left + lipgloss.NewStyle().Width(gap).Render("") + right

	return box.Render(c.area.View()) + "\n" + status
}

// validationText extracts the user-facing message from a validation error.
func validationText(err error) string {
	var ve *util.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
