// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/ui/styles"
	"github.com/jeranaias/huddle/internal/util"
)

// EmptyRosterText is shown when nobody is connected.
const EmptyRosterText = "No one here yet"

// RosterStatus describes a roster entry: "You" for the session user,
// otherwise how long ago they connected.
func RosterStatus(u model.User, currentID string, now time.Time) string {
	if u.ID != "" && u.ID == currentID {
		return "You"
	}
	if u.JoinedAt.IsZero() {
		return "Online"
	}
	return "Connected " + util.RelativeTime(u.JoinedAt.Time, now)
}

// RenderRoster draws the user panel. users must already be ordered (current
// user first, then by name); session.Roster does that.
func RenderRoster(theme *styles.Theme, users []model.User, currentID string, now time.Time, width, height int) string {
	if width <= 0 {
		return ""
	}
	inner := width - theme.Roster.GetHorizontalFrameSize()
	if inner < 4 {
		inner = 4
	}

	var sb strings.Builder
	sb.WriteString(theme.RosterTitle.Render("Online"))
	sb.WriteString("\n")

	if len(users) == 0 {
		sb.WriteString(theme.EmptyState.Render(EmptyRosterText))
	}
	for i, u := range users {
		if i > 0 {
			sb.WriteString("\n")
		}
		name := styles.UserNameStyle(u.ID).Render(util.TruncateWidth("["+u.Initial()+"] "+u.Name, inner))
		status := RosterStatus(u, currentID, now)
		meta := theme.RosterMeta
		if status == "You" {
			meta = theme.RosterSelf
		}
		sb.WriteString(name + "\n" + meta.Render("  "+util.TruncateWidth(status, inner-2)))
	}

	noun := "users"
	if len(users) == 1 {
		noun = "user"
	}
	sb.WriteString("\n")
	sb.WriteString(theme.RosterFooter.Render(fmt.Sprintf("%d %s online", len(users), noun)))

	panel := theme.Roster.Width(width - theme.Roster.GetHorizontalBorderSize()).Render(sb.String())
	if height > 0 {
		panel = lipgloss.NewStyle().Height(height).MaxHeight(height).Render(panel)
	}
	return panel
}
