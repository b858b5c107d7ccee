// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for huddle commands.
//
// Commands always return errors and never print-and-swallow them. main
// decides how to display an error and which exit code it maps to.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/huddle/internal/api"
	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/transport"
	"github.com/jeranaias/huddle/internal/util"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the chat server could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a command failure with context.
type CommandError struct {
	Command string // e.g. "history"
	Action  string // e.g. "read archive"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError is returned for malformed command lines.
type UsageError struct {
	Message string
	// Hint, if set, is an example of valid usage.
	Hint string
}

func (e *UsageError) Error() string {
	if e.Hint != "" {
		return e.Message + "\nUsage: " + e.Hint
	}
	return e.Message
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

func usageErrorf(hint, format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...), Hint: hint}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var validation *util.ValidationError
	var cfgErrs config.ValidateErrors
	switch {
	case errors.As(err, &usage), errors.As(err, &validation):
		return ExitUsageError
	case errors.As(err, &cfgErrs):
		return ExitConfigError
	case errors.Is(err, api.ErrTimeout):
		return ExitTimeoutError
	case errors.Is(err, api.ErrUnreachable), errors.Is(err, transport.ErrGaveUp):
		return ExitNetworkError
	case errors.Is(err, api.ErrNotFound):
		return ExitNotFoundError
	}
	return ExitGeneralError
}

// DisplayError writes err in the shared error format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}
