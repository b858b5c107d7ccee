// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the huddle TUI.
//
// Stateful widgets (JoinForm, Composer, MessageList) follow the Bubble Tea
// Update/View pattern and report user intent as messages (JoinSubmitMsg,
// SendMsg) instead of talking to the session directly. Stateless panels
// (RenderRoster, Header, RenderStatusBar, RenderToastStack) are plain
// render functions over session state.
//
// # Message grouping
//
// ShowIdentity decides when a sender's name is repeated: on a change of
// sender or after a pause longer than IdentityGap.
package components
