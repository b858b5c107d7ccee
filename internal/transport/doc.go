// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport owns the push connection to the chat server.
//
// A Conn is an explicitly created, scoped object. It dials the WebSocket
// endpoint, redials after failures within a configured budget, and publishes
// every inbound event (including the local connect, disconnect and
// connect_error events) on a single typed channel. Outbound actions are
// fire-and-forget and never block the caller.
//
// # Usage
//
//	conn := transport.New(transport.OptionsFromConfig(cfg.Server), logger)
//	if err := conn.Open(ctx); err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	for ev := range conn.Events() {
//	    notices := sess.Apply(ev)
//	    ...
//	}
package transport
