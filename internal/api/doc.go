// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the chat server's REST endpoints.
//
// The interactive client never needs it; the status and history commands use
// it to inspect the server without opening a socket.
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: cfg.Server.APIURL})
//	health, err := client.Health(ctx)
//	msgs, err := client.RoomMessages(ctx, "general", 50)
package api
