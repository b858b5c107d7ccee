// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides pure helper functions shared by the UI, the CLI and the
// session package.
//
// # Key Functions
//
// Validation:
//   - ValidateName: display-name rules for the join form
//   - ValidateMessage: content rules for the composer
//
// Formatting:
//   - UserColor: deterministic per-user colour from a fixed palette
//   - FormatTimestamp, RelativeTime: chat-style time labels
//   - EscapeHTML, LinkifyHTML, Linkify: URL detection for HTML and terminal output
//
// Strings:
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width aware truncation
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	if err := util.ValidateName(input, cfg.Limits.MaxNameLength); err != nil {
//	    return err
//	}
//	color := util.UserColor(user.ID)
package util
