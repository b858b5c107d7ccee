// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"html"
	"regexp"
	"strings"
)

// urlPattern matches http and https URLs up to the next whitespace.
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// EscapeHTML escapes text for safe inclusion in HTML.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// LinkifyHTML escapes text and wraps every URL in an anchor that opens in a
// new tab. SECURITY: escaping happens before matching, so markup in the
// message never reaches the output unescaped.
func LinkifyHTML(text string) string {
	escaped := EscapeHTML(text)
	return urlPattern.ReplaceAllStringFunc(escaped, func(u string) string {
		return `<a href="` + u + `" target="_blank" rel="noopener noreferrer">` + u + `</a>`
	})
}

// Linkify rewrites every URL in text with wrap. Text outside URLs passes
// through plain.
func Linkify(text string, wrap func(url string) string) string {
	if wrap == nil || !strings.Contains(text, "http") {
		return text
	}
	return urlPattern.ReplaceAllStringFunc(text, wrap)
}

// FindURLs returns every URL in text in order of appearance.
func FindURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}
