// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the client-side chat state and projects inbound
// events onto it.
//
// A Session owns the session user, the roster and the message log. It is
// driven from exactly one goroutine (the UI dispatch loop) and is not safe for
// concurrent use. Every inbound event goes through Apply, which returns the
// notices the UI should show.
//
// # State Machine
//
//	unjoined --joined_chat--> joined
//
// The transition is one-way. A disconnect does not clear the session user.
//
// # Usage
//
//	sess := session.New(conn, session.Options{Room: cfg.Server.Room})
//	for ev := range conn.Events() {
//	    for _, n := range sess.Apply(ev) {
//	        show(n)
//	    }
//	}
package session
