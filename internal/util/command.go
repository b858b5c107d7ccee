// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strings"

// SplitCommand reports whether line is a slash command. A leading "//"
// escapes the slash: the line is a message and text drops one slash.
func SplitCommand(line string) (text string, isCommand bool) {
	if strings.HasPrefix(line, "//") {
		return line[1:], false
	}
	return line, strings.HasPrefix(line, "/")
}
