// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import "errors"

var (
	// ErrNotConnected is returned by outbound actions while no socket is open.
	// Nothing is sent or queued.
	ErrNotConnected = errors.New("not connected")

	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("connection closed")

	// ErrSendQueueFull is returned when the outbound queue has no room.
	ErrSendQueueFull = errors.New("send queue full")

	// ErrGaveUp reports that the reconnect budget was spent. The final
	// Disconnect or ConnectError event carries Final = true.
	ErrGaveUp = errors.New("gave up reconnecting")

	// ErrAlreadyOpen is returned by a second call to Open.
	ErrAlreadyOpen = errors.New("connection already open")
)
