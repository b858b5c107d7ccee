// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Healthy reports whether the server described itself as healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// errorBody is the server's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// Message limits accepted by the history endpoints.
const (
	MinLimit     = 1
	MaxLimit     = 100
	DefaultLimit = 50
)

// ClampLimit bounds n to [MinLimit, MaxLimit]. Zero or negative means
// DefaultLimit.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}
