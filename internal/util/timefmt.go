// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"time"
)

// FormatTimestamp renders a chat timestamp relative to now: "15:04" for
// today, "Yesterday 15:04" for yesterday, "02/01 15:04" otherwise. Both
// times are compared in now's location. An unknown (zero) time renders as
// "--:--".
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	t = t.In(now.Location())
	if sameDay(t, now) {
		return t.Format("15:04")
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday " + t.Format("15:04")
	}
	return t.Format("02/01 15:04")
}

// RelativeTime renders the age of t: "now", "N min ago", "N h ago" or
// "N d ago". Future times render as "now".
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "now"
	case minutes < 60:
		return fmt.Sprintf("%d min ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%d h ago", hours)
	default:
		return fmt.Sprintf("%d d ago", days)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
