// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/ui/styles"
	"github.com/jeranaias/huddle/internal/util"
)

// =============================================================================
// MESSAGE GROUPING
// =============================================================================

// IdentityGap is the pause after which a sender's name is shown again even
// when the same person keeps talking.
const IdentityGap = 5 * time.Minute

// EmptyMessagesText is shown when the log is empty.
const EmptyMessagesText = "No messages yet. Say hello!"

// ShowIdentity reports whether cur starts a new group: the first message,
// a change of sender, or more than IdentityGap since prev.
func ShowIdentity(prev *model.Message, cur model.Message) bool {
	if prev == nil {
		return true
	}
	if prev.UserID != cur.UserID {
		return true
	}
	return cur.Timestamp.Sub(prev.Timestamp.Time) > IdentityGap
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderOptions controls how the message log is drawn.
type RenderOptions struct {
	Width          int
	CurrentUserID  string
	ShowTimestamps bool
	// Hyperlinks wraps URLs in OSC-8 escape sequences.
	Hyperlinks bool
	Now        time.Time
}

// RenderMessages draws the whole log as a single string.
func RenderMessages(theme *styles.Theme, msgs []model.Message, opts RenderOptions) string {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	if len(msgs) == 0 {
		return lipgloss.PlaceHorizontal(opts.Width, lipgloss.Center, theme.EmptyState.Render(EmptyMessagesText))
	}

	var sb strings.Builder
	for i, msg := range msgs {
		var prev *model.Message
		if i > 0 {
			prev = &msgs[i-1]
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(renderMessage(theme, msg, ShowIdentity(prev, msg), opts))
	}
	return sb.String()
}

func renderMessage(theme *styles.Theme, msg model.Message, identity bool, opts RenderOptions) string {
	if msg.IsSystem() {
		line := theme.SystemLine.Render("-- " + msg.Content + " --")
		return lipgloss.PlaceHorizontal(opts.Width, lipgloss.Center, line)
	}

	own := msg.SentBy(opts.CurrentUserID)
	bubbleWidth := opts.Width * 7 / 10
	if bubbleWidth < 20 {
		bubbleWidth = opts.Width
	}

	var lines []string
	if identity {
		lines = append(lines, "", identityLine(theme, msg, own, opts))
	}

	bubble := theme.OtherBubble
	if own {
		bubble = theme.OwnBubble
	}
	body := linkifyLines(theme, msg.Lines(), opts.Hyperlinks)
	if lipgloss.Width(body)+bubble.GetHorizontalFrameSize() > bubbleWidth {
		body = lipgloss.NewStyle().Width(bubbleWidth - bubble.GetHorizontalFrameSize()).Render(body)
	}
	lines = append(lines, bubble.Render(body))

	block := strings.Join(lines, "\n")
	if own {
		return lipgloss.PlaceHorizontal(opts.Width, lipgloss.Right, lipgloss.JoinVertical(lipgloss.Right, lines...))
	}
	return block
}

func identityLine(theme *styles.Theme, msg model.Message, own bool, opts RenderOptions) string {
	name := msg.UserName
	if own {
		name = "You"
	}
	if name == "" {
		name = "Unknown"
	}

	marker := styles.UserNameStyle(msg.UserID).Render("[" + initialOf(msg.UserName) + "]")
	label := marker + " " + styles.UserNameStyle(msg.UserID).Render(name)
	if opts.ShowTimestamps && !msg.Timestamp.IsZero() {
		label += " " + theme.Timestamp.Render(util.FormatTimestamp(msg.Timestamp.Time, opts.Now))
	}
	return label
}

func initialOf(name string) string {
	return model.User{Name: name}.Initial()
}

func linkifyLines(theme *styles.Theme, lines []string, hyperlinks bool) string {
	wrap := func(u string) string { return theme.LinkStyle.Render(u) }
	if hyperlinks {
		wrap = func(u string) string { return termenv.Hyperlink(u, theme.LinkStyle.Render(u)) }
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = util.Linkify(line, wrap)
	}
	return strings.Join(out, "\n")
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList is a scrollable view over the message log. It follows the
// newest message unless the user has scrolled up.
type MessageList struct {
	viewport viewport.Model
	theme    *styles.Theme
	opts     RenderOptions
	messages []model.Message
	follow   bool
}

// NewMessageList creates an empty list.
func NewMessageList(theme *styles.Theme, width, height int) MessageList {
	vp := viewport.New(width, height)
	vp.KeyMap = viewport.KeyMap{} // scrolling is driven by the root model

	l := MessageList{
		viewport: vp,
		theme:    theme,
		opts:     RenderOptions{Width: width, ShowTimestamps: true},
		follow:   true,
	}
	l.refresh()
	return l
}

// SetSize resizes the list.
func (l *MessageList) SetSize(width, height int) {
	l.viewport.Width = width
	l.viewport.Height = height
	l.opts.Width = width
	l.refresh()
}

// SetCurrentUser marks whose messages are right-aligned.
func (l *MessageList) SetCurrentUser(id string) {
	l.opts.CurrentUserID = id
	l.refresh()
}

// SetDisplay applies the ui display settings.
func (l *MessageList) SetDisplay(showTimestamps, hyperlinks bool) {
	l.opts.ShowTimestamps = showTimestamps
	l.opts.Hyperlinks = hyperlinks
	l.refresh()
}

// SetMessages replaces the log. The view jumps to the newest message while
// following.
func (l *MessageList) SetMessages(msgs []model.Message) {
	l.messages = msgs
	l.refresh()
}

// Len returns the number of messages shown.
func (l MessageList) Len() int {
	return len(l.messages)
}

// Following reports whether the list sticks to the newest message.
func (l MessageList) Following() bool {
	return l.follow
}

// PageUp scrolls up one page and stops following.
func (l *MessageList) PageUp() {
	l.viewport.ViewUp()
	l.follow = l.viewport.AtBottom()
}

// PageDown scrolls down one page and resumes following at the bottom.
func (l *MessageList) PageDown() {
	l.viewport.ViewDown()
	l.follow = l.viewport.AtBottom()
}

// GotoBottom jumps to the newest message and resumes following.
func (l *MessageList) GotoBottom() {
	l.viewport.GotoBottom()
	l.follow = true
}

func (l *MessageList) refresh() {
	l.opts.Now = time.Now()
	l.viewport.SetContent(RenderMessages(l.theme, l.messages, l.opts))
	if l.follow {
		l.viewport.GotoBottom()
	}
}

// View renders the visible part of the log.
func (l MessageList) View() string {
	return l.viewport.View()
}
