// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// User is a chat participant as reported by the server.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
	JoinedAt Timestamp `json:"joined_at"`
}

// Initial returns the upper-cased first character of the user's name,
// used as an avatar marker. Returns "?" for an empty name.
func (u User) Initial() string {
	for _, r := range u.Name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// IsZero reports whether the user has no identity.
func (u User) IsZero() bool {
	return u.ID == ""
}
