// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the root Bubble Tea model of the huddle TUI.

The model shows a join form until the server confirms the join, then the
chat screen: header, message list, optional user panel, composer and
status bar. Notices from the session appear as toasts above the composer.

# Event loop

Transport events reach the model through WaitForEvent, a tea.Cmd that reads
one event from the channel. Update applies it to the session and issues the
next WaitForEvent, so all chat state changes happen inside Update.

# Keys

	enter       send message / join
	alt+enter   new line
	tab         toggle user panel
	ctrl+r      refresh users
	ctrl+e      export transcript as HTML
	?, f1       help
	pgup, pgdn  scroll
	esc         dismiss notices
	ctrl+c      quit

# Slash commands

/users, /export [html|json|md], /help and /quit are handled locally and
never sent to the server.
*/
package chat
