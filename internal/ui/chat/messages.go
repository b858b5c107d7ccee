// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/protocol"
)

// =============================================================================
// TRANSPORT MESSAGES
// =============================================================================

// EventMsg carries one inbound transport event into the Update loop.
type EventMsg struct {
	Event protocol.Event
}

// EventsClosedMsg reports that the transport has shut down its event channel.
type EventsClosedMsg struct{}

// WaitForEvent reads a single event from events. Update re-issues it after
// every EventMsg, so events are applied one at a time in arrival order.
func WaitForEvent(events <-chan protocol.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a config file change. Only the ui section is
// applied while running.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a config file that no longer loads.
type ConfigErrorMsg struct {
	Err error
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportCompleteMsg reports the outcome of an export.
type ExportCompleteMsg struct {
	Path string
	Err  error
}
