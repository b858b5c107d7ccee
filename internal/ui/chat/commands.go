// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/huddle/internal/session"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// commandHandler runs a slash command. args excludes the command name.
type commandHandler func(m *Model, args []string) tea.Cmd

// commandHandlers maps command names (without the slash) to handlers.
var commandHandlers = map[string]commandHandler{
	"users":  handleUsersCommand,
	"who":    handleUsersCommand,
	"export": handleExportCommand,
	"help":   handleHelpCommand,
	"?":      handleHelpCommand,
	"quit":   handleQuitCommand,
	"exit":   handleQuitCommand,
	"q":      handleQuitCommand,
}

// handleCommand dispatches a "/name args..." line. Unknown commands produce a
// warning notice and nothing is sent to the server.
func (m *Model) handleCommand(content string) tea.Cmd {
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	handler, ok := commandHandlers[name]
	if !ok {
		m.pushNotices(session.Notice{
			Kind: session.NoticeWarning,
			Text: "Unknown command " + parts[0] + ", type /help for the list",
		})
		m.layout()
		return nil
	}
	return handler(m, parts[1:])
}

func handleUsersCommand(m *Model, _ []string) tea.Cmd {
	m.refreshUsers()
	if !m.showRoster {
		m.showRoster = true
		m.layout()
	}
	return nil
}

func handleExportCommand(m *Model, args []string) tea.Cmd {
	format := "html"
	if len(args) > 0 {
		format = args[0]
	}
	return m.exportCmd(format)
}

func handleHelpCommand(m *Model, _ []string) tea.Cmd {
	m.showHelp = !m.showHelp
	m.layout()
	return nil
}

func handleQuitCommand(_ *Model, _ []string) tea.Cmd {
	return tea.Quit
}
