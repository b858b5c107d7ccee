// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures exchanged with the chat server.
//
// These types mirror the server's JSON payloads. They carry no behaviour beyond
// small display helpers; the chat state that holds them lives in the session
// package.
//
// # Key Types
//
//   - User: A chat participant (the session user or a roster entry)
//   - Message: A single chat message as broadcast by the server
//   - MessageType: text, system or notification
//   - Timestamp: A time.Time that tolerates the server's naive ISO-8601 form
//
// # Usage
//
//	var msg model.Message
//	if err := json.Unmarshal(data, &msg); err != nil {
//	    return err
//	}
//	fmt.Println(msg.UserName, msg.Preview(50))
package model
