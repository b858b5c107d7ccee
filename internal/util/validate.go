// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Default input limits.
const (
	DefaultMaxNameLength    = 50
	DefaultMaxMessageLength = 1000
	MinNameLength           = 2
)

// ValidationError describes input rejected locally, before anything is sent
// to the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeName trims surrounding whitespace and composes the name to NFC,
// so a combining accent is reported as one invalid character.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateName checks a display name: after normalisation it must be
// between MinNameLength and maxLen runes and contain only ASCII letters,
// ASCII digits, whitespace, '-', '_' and '.'. A maxLen <= 0 uses
// DefaultMaxNameLength.
func ValidateName(name string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}
	name = NormalizeName(name)

	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	n := RuneLen(name)
	if n < MinNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name must be at least %d characters", MinNameLength)}
	}
	if n > maxLen {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name cannot be longer than %d characters", maxLen)}
	}
	for _, r := range name {
		if !isNameRune(r) {
			return &ValidationError{Field: "name", Message: "name contains invalid characters"}
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.':
		return true
	}
	return unicode.IsSpace(r)
}

// ValidateMessage checks message content: it must not be empty after
// trimming and must not exceed maxLen runes. Runes are counted after NFC
// composition, so an accent typed as a combining mark counts once. A
// maxLen <= 0 uses DefaultMaxMessageLength.
func ValidateMessage(content string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	content = strings.TrimSpace(content)

	if content == "" {
		return &ValidationError{Field: "message", Message: "message cannot be empty"}
	}
	if RuneLen(norm.NFC.String(content)) > maxLen {
		return &ValidationError{Field: "message", Message: fmt.Sprintf("message cannot be longer than %d characters", maxLen)}
	}
	return nil
}
