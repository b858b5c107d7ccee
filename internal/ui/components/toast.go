// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/ui/styles"
)

// =============================================================================
// NOTICE TOASTS
// =============================================================================

// Toast is a non-blocking notice shown in the corner of the chat screen. It
// dismisses itself once its duration has passed.
type Toast struct {
	ID        int
	Text      string
	Kind      session.NoticeKind
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast for a session notice. Errors stay up longer.
func NewToast(n session.Notice, now time.Time) Toast {
	d := styles.NoticeDuration
	if n.Kind == session.NoticeError {
		d = styles.NoticeErrorDuration
	}
	return Toast{Text: n.Text, Kind: n.Kind, CreatedAt: now, Duration: d}
}

// IsExpired reports whether the toast should be dismissed at now.
func (t Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// TimeRemaining returns how long the toast has left at now.
func (t Toast) TimeRemaining(now time.Time) time.Duration {
	remaining := t.Duration - now.Sub(t.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// =============================================================================
// TOAST STACK
// =============================================================================

// DefaultMaxToasts bounds how many toasts are visible at once.
const DefaultMaxToasts = 4

// ToastStack holds the visible toasts, newest first. It is owned by the
// Update loop and is not safe for concurrent use.
type ToastStack struct {
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastStack creates an empty stack.
func NewToastStack() *ToastStack {
	return &ToastStack{nextID: 1, maxToasts: DefaultMaxToasts}
}

// Push adds notices as toasts and returns the id of the last one added.
func (s *ToastStack) Push(now time.Time, notices ...session.Notice) int {
	id := 0
	for _, n := range notices {
		t := NewToast(n, now)
		t.ID = s.nextID
		s.nextID++
		id = t.ID

		s.toasts = append([]Toast{t}, s.toasts...)
	}
	if len(s.toasts) > s.maxToasts {
		s.toasts = s.toasts[:s.maxToasts]
	}
	return id
}

// Dismiss removes a toast by id.
func (s *ToastStack) Dismiss(id int) {
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return
		}
	}
}

// DismissAll clears the stack.
func (s *ToastStack) DismissAll() {
	s.toasts = nil
}

// Tick drops expired toasts and reports whether any remain.
func (s *ToastStack) Tick(now time.Time) bool {
	active := s.toasts[:0]
	for _, t := range s.toasts {
		if !t.IsExpired(now) {
			active = append(active, t)
		}
	}
	s.toasts = active
	return len(s.toasts) > 0
}

// Toasts returns a copy of the visible toasts, newest first.
func (s *ToastStack) Toasts() []Toast {
	out := make([]Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

// Len returns the number of visible toasts.
func (s *ToastStack) Len() int {
	return len(s.toasts)
}

// ToastTickMsg drives toast expiry.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks toasts every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

func toastLook(kind session.NoticeKind) (lipgloss.AdaptiveColor, string) {
	switch kind {
	case session.NoticeError:
		return styles.Rose, styles.StatusIndicators.Error
	case session.NoticeWarning:
		return styles.Amber, styles.StatusIndicators.Warning
	case session.NoticeSuccess:
		return styles.Emerald, styles.StatusIndicators.Success
	default:
		return styles.Sky, styles.StatusIndicators.Info
	}
}

// RenderToast renders a single toast.
func RenderToast(t Toast, width int, now time.Time) string {
	maxWidth := 50
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 20 {
		maxWidth = 20
	}

	color, icon := toastLook(t.Kind)
	iconStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	content := iconStyle.Render(icon+" ") + textStyle.Render(wrapToastText(t.Text, maxWidth-8))
	if secs := int(t.TimeRemaining(now).Seconds()); secs > 0 {
		content += "\n" + hintStyle.Render("[esc] dismiss  "+strconv.Itoa(secs)+"s")
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(content)
}

// RenderToastStack renders the toasts stacked vertically, newest at the
// bottom, right-aligned.
func RenderToastStack(toasts []Toast, width int, now time.Time) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for i := len(toasts) - 1; i >= 0; i-- {
		rendered = append(rendered, RenderToast(toasts[i], width, now))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
	}
	return stack
}

// wrapToastText performs simple word wrapping for toast text.
func wrapToastText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case lipgloss.Width(line.String())+1+lipgloss.Width(word) <= maxWidth:
			line.WriteString(" ")
			line.WriteString(word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
