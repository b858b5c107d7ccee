// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "unicode/utf16"

// UserPalette is the fixed set of avatar colours. The duplicate entry is
// intentional: colours already assigned to ids must not shift.
var UserPalette = [15]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#85C1E9", "#D7BDE2",
}

// UserColor returns the palette colour for a user id. The same id always maps
// to the same colour.
func UserColor(userID string) string {
	return UserPalette[UserColorIndex(userID)]
}

// UserColorIndex returns the palette index for a user id. It reproduces the
// web client's hash exactly: the sum runs over UTF-16 code units and is not
// truncated, only the shifted term wraps to 32 bits.
func UserColorIndex(userID string) int {
	var hash int64
	for _, unit := range utf16.Encode([]rune(userID)) {
		shifted := int64(int32(uint32(hash)) << 5)
		hash = int64(unit) + shifted - hash
	}
	if hash < 0 {
		hash = -hash
	}
	return int(hash % int64(len(UserPalette)))
}
