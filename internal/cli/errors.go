// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Structured CLI errors with stable exit codes.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
)

// Exit codes for scripting against quizchat.
const (
	ExitOK         = 0
	ExitError      = 1 // generic failure
	ExitUsage      = 2 // bad arguments
	ExitConfig     = 3 // configuration invalid or unreadable
	ExitNotFound   = 4 // referenced file or resource missing
	ExitPermission = 5 // filesystem permission problem
)

// CommandError wraps a failure inside a command with enough context to
// print a useful message.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError marks an argument problem. It carries a hint shown under
// the error message.
type UsageError struct {
	Message string
	Hint    string
}

func (e *UsageError) Error() string {
	if e.Hint != "" {
		return e.Message + "\n  hint: " + e.Hint
	}
	return e.Message
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewUsageError creates a UsageError with a hint.
func NewUsageError(message, hint string) error {
	return &UsageError{Message: message, Hint: hint}
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsage
	}

	switch {
	case errors.Is(err, ErrConfigInvalid):
		return ExitConfig
	case errors.Is(err, fs.ErrNotExist):
		return ExitNotFound
	case errors.Is(err, fs.ErrPermission):
		return ExitPermission
	}

	return ExitError
}

// ErrConfigInvalid is wrapped around configuration validation failures
// so dispatch can map them to ExitConfig.
var ErrConfigInvalid = errors.New("invalid configuration")
