// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType classifies a chat message.
type MessageType string

const (
	MessageTypeText         MessageType = "text"
	MessageTypeSystem       MessageType = "system"
	MessageTypeNotification MessageType = "notification"
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known message types.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText, MessageTypeSystem, MessageTypeNotification:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE
// =============================================================================

// DefaultRoom is the room used when none is configured.
const DefaultRoom = "general"

// Message is a single chat message as broadcast by the server.
type Message struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	UserName  string      `json:"user_name"`
	Content   string      `json:"content"`
	Type      MessageType `json:"message_type"`
	Timestamp Timestamp   `json:"timestamp"`
	RoomID    string      `json:"room_id"`
}

// Preview returns the first maxLen runes of the content, followed by "..."
// when the content was longer.
// UNICODE: counts runes, never splits a multi-byte character.
func (m Message) Preview(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen]) + "..."
}

// IsSystem reports whether the message was generated by the server rather
// than typed by a participant.
func (m Message) IsSystem() bool {
	return m.Type == MessageTypeSystem || m.Type == MessageTypeNotification
}

// SentBy reports whether the message was sent by the user with the given id.
func (m Message) SentBy(userID string) bool {
	return userID != "" && m.UserID == userID
}

// Lines splits the content into display lines.
func (m Message) Lines() []string {
	return strings.Split(strings.ReplaceAll(m.Content, "\r\n", "\n"), "\n")
}
