// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"time"

	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/ui/styles"
	"github.com/jeranaias/huddle/internal/util"
)

// continuationIndent lines up wrapped message lines under the content.
const continuationIndent = "    "

// FormatMessageLine renders one message for line-oriented output:
//
//	[15:04] ana: hello
//	-- ana joined --
//
// Messages sent by currentID are attributed to "You".
func FormatMessageLine(msg model.Message, currentID string, now time.Time) string {
	if msg.IsSystem() {
		return DimStyle.Render("-- " + msg.Content + " --")
	}

	var b strings.Builder
	if !msg.Timestamp.IsZero() {
		b.WriteString(DimStyle.Render("[" + util.FormatTimestamp(msg.Timestamp.Time, now) + "]"))
		b.WriteString(" ")
	}

	name := msg.UserName
	if currentID != "" && msg.SentBy(currentID) {
		name = "You"
	}
	b.WriteString(styles.UserNameStyle(msg.UserID).Render(name))
	b.WriteString(": ")

	for i, line := range msg.Lines() {
		if i > 0 {
			b.WriteString("\n" + continuationIndent)
		}
		b.WriteString(line)
	}
	return b.String()
}
