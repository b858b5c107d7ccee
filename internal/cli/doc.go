// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements huddle's command line: argument parsing, the plain
// line-mode chat client, and the status, history, config and version
// commands. The full-screen TUI is started by main.
package cli
