// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"github.com/jeranaias/huddle/internal/util"
)

// NoticeKind classifies a transient notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// String returns the kind name.
func (k NoticeKind) String() string {
	switch k {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short message for the user, shown as a toast.
type Notice struct {
	Kind NoticeKind
	Text string
}

func info(text string) Notice    { return Notice{Kind: NoticeInfo, Text: text} }
func success(text string) Notice { return Notice{Kind: NoticeSuccess, Text: text} }
func failure(text string) Notice { return Notice{Kind: NoticeError, Text: text} }

// ValidationError is returned for input rejected before reaching the
// transport.
type ValidationError = util.ValidationError

// NoticeFor converts an action error into a notice. Validation errors show
// their message only.
func NoticeFor(err error) Notice {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return Notice{Kind: NoticeWarning, Text: ve.Message}
	}
	return failure(err.Error())
}
