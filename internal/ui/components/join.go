// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/ui/styles"
	"github.com/jeranaias/huddle/internal/util"
)

// =============================================================================
// JOIN FORM
// =============================================================================

// JoinSubmitMsg is emitted when the form holds a valid name and Enter is
// pressed.
type JoinSubmitMsg struct {
	Name string
}

// JoinForm asks for a display name before entering the chat.
type JoinForm struct {
	input   textinput.Model
	spinner spinner.Model
	theme   *styles.Theme

	maxLen  int
	err     string
	joining bool
}

// NewJoinForm creates a focused join form.
func NewJoinForm(theme *styles.Theme, maxNameLen int) JoinForm {
	if maxNameLen <= 0 {
		maxNameLen = util.DefaultMaxNameLength
	}

	in := textinput.New()
	in.Placeholder = "Your name"
	in.Prompt = "> "
	in.CharLimit = maxNameLen
	in.Width = 30
	in.Focus()

	sp := spinner.New()
	sp.Spinner = styles.DotsSpinner.Bubble()
	sp.Style = theme.Spinner

	return JoinForm{input: in, spinner: sp, theme: theme, maxLen: maxNameLen}
}

// Value returns the current input.
func (f JoinForm) Value() string {
	return f.input.Value()
}

// Err returns the inline error, if any.
func (f JoinForm) Err() string {
	return f.err
}

// Joining reports whether a join request is in flight.
func (f JoinForm) Joining() bool {
	return f.joining
}

// SetJoining toggles the joining state. While joining, input is ignored.
func (f *JoinForm) SetJoining(joining bool) tea.Cmd {
	f.joining = joining
	if joining {
		f.input.Blur()
		return f.spinner.Tick
	}
	return f.input.Focus()
}

// SetError shows an inline error and ends the joining state.
func (f *JoinForm) SetError(msg string) {
	f.err = msg
	f.joining = false
	f.input.Focus()
}

// SetMaxLength updates the name length limit.
func (f *JoinForm) SetMaxLength(n int) {
	if n > 0 {
		f.maxLen = n
		f.input.CharLimit = n
	}
}

// Update handles key input. A valid name on Enter produces JoinSubmitMsg.
func (f JoinForm) Update(msg tea.Msg) (JoinForm, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !f.joining {
			return f, nil
		}
		var cmd tea.Cmd
		f.spinner, cmd = f.spinner.Update(msg)
		return f, cmd

	case tea.KeyMsg:
		if f.joining {
			return f, nil
		}
		if msg.Type == tea.KeyEnter {
			name := util.NormalizeName(f.input.Value())
			if err := util.ValidateName(name, f.maxLen); err != nil {
				f.err = validationText(err)
				return f, nil
			}
			f.err = ""
			return f, func() tea.Msg { return JoinSubmitMsg{Name: name} }
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		f.err = ""
	}
	return f, cmd
}

// View renders the form centered in width x height.
func (f JoinForm) View(width, height int) string {
	t := f.theme

	body := t.JoinTitle.Render("huddle") + "\n" +
		t.JoinSubtitle.Render("Pick a name to join the chat") + "\n\n" +
		f.input.View() + "\n"

	switch {
	case f.joining:
		body += "\n" + f.spinner.View() + " " + t.JoinSubtitle.Render("Joining")
	case f.err != "":
		body += "\n" + t.JoinError.Render(styles.StatusIndicators.Error+" "+f.err)
	default:
		body += "\n" + t.ShortcutDesc.Render("enter to join, ctrl+c to quit")
	}

	box := t.JoinBox.Render(body)
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
