// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the wire contract with the chat server.
//
// Every WebSocket text frame carries one JSON envelope:
//
//	{"event": "new_message", "data": {...}}
//
// Event names are the server's Socket.IO event names. Inbound envelopes decode
// into a closed set of typed events (a tagged union behind the Event
// interface) so that consumers handle them with a single type switch.
//
// Three further events (connect, disconnect, connect_error) never travel on the
// wire; the transport synthesises them to report connection state changes on the
// same channel.
package protocol
