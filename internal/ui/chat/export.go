// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/huddle/internal/export"
)

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// exportCmd writes the current message log in format. The transcript is
// captured now; the file is written off the Update loop.
func (m *Model) exportCmd(format string) tea.Cmd {
	opts := export.DefaultOptions()
	opts.OutputDir = m.exportDir

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return func() tea.Msg { return ExportCompleteMsg{Err: err} }
	}

	t := export.NewTranscript(m.sess.Room(), export.SourceLive, m.sess.Messages())
	if user, ok := m.sess.CurrentUser(); ok {
		t.ViewerID = user.ID
		t.ViewerName = user.Name
	}

	return func() tea.Msg {
		path, err := export.ExportToFile(t, exporter, opts)
		return ExportCompleteMsg{Path: path, Err: err}
	}
}
