// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the huddle TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Indigo - Own messages and focus
  - Cyan - Brand, room name, shortcut keys
  - Emerald - Connected badge and success notices
  - Amber - Warnings and the message counter near its limit
  - Rose - Errors and the disconnected badge

Participants get a stable per-user color from UserColor, derived from their
user id.

# Theme (theme.go)

Theme groups the styles used by each screen region: header, message list,
composer, roster, join screen and overlays. GetLayoutMode and RosterWidth
drive the responsive layout.

# Accessibility

Every colored state has an ASCII indicator in StatusIndicators so it stays
readable on monochrome terminals.
*/
package styles
