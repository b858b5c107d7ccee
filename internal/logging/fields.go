// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

// Structured field names.
const (
	FieldService   = "service"
	FieldComponent = "component"

	// Connection
	FieldClientID = "client_id"
	FieldURL      = "url"
	FieldAttempt  = "attempt"

	// Chat
	FieldEvent    = "event"
	FieldUserID   = "user_id"
	FieldUserName = "user_name"
	FieldRoom     = "room"
	FieldMessage  = "message_id"

	// Files
	FieldPath = "path"
)
