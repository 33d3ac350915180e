// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the quiz view component for the TUI.
//
// This file defines the Bubble Tea message types used by the quiz
// interface:
//   - Quiz flow: start, debounced submit delivery, turn results
//   - Export: completion of a results export
//   - Errors: error display and dismissal
package chat

import (
	"time"

	"github.com/jeranaias/quizchat-tui/internal/model"
	"github.com/jeranaias/quizchat-tui/internal/quiz"
)

// =============================================================================
// QUIZ FLOW MESSAGES
// =============================================================================

// QuizStartedMsg reports that the engine presented the first question.
// Question is nil when the quiz could not start (empty catalog or
// already running).
type QuizStartedMsg struct {
	Question *model.Message
}

// DebouncedSubmitMsg delivers input text whose debounce window settled.
// This is the only path by which user text reaches the engine.
type DebouncedSubmitMsg struct {
	Text string
}

// TurnResultMsg reports the outcome of one engine turn.
type TurnResultMsg struct {
	Result  quiz.SubmitResult
	Elapsed time.Duration
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportDoneMsg reports the outcome of a results export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// ErrorMsg displays an error to the user.
type ErrorMsg struct {
	Title       string
	Message     string
	Dismissible bool
}

// ErrorDismissMsg dismisses the current error.
type ErrorDismissMsg struct{}

// NewErrorMsg creates a new dismissible error message.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Dismissible: true,
	}
}
