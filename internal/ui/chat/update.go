// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/quizchat-tui/internal/export"
	"github.com/jeranaias/quizchat-tui/internal/quiz"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// startQuiz creates a command that starts the quiz session.
func startQuiz(engine *quiz.Engine) tea.Cmd {
	return func() tea.Msg {
		return QuizStartedMsg{Question: engine.Start()}
	}
}

// waitForSubmission creates a command that blocks until the debouncer
// delivers fired text. It is re-armed each time it yields a message so
// exactly one listener is outstanding.
func waitForSubmission(ch chan string) tea.Cmd {
	return func() tea.Msg {
		return DebouncedSubmitMsg{Text: <-ch}
	}
}

// submitTurn creates a command that runs one engine turn. Submit blocks
// for the duration of the gateway call, so it must run as a command,
// never inline in Update.
func submitTurn(engine *quiz.Engine, text string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		result := engine.Submit(context.Background(), text)
		return TurnResultMsg{Result: result, Elapsed: time.Since(start)}
	}
}

// exportResults creates a command that writes the response archive to a
// result file.
func exportResults(engine *quiz.Engine, opts Options) tea.Cmd {
	return func() tea.Msg {
		if engine.Archive().Len() == 0 {
			return ExportDoneMsg{Err: errors.New("no recorded responses to export yet")}
		}

		snap := engine.Archive().Snapshot(opts.QuizName)
		exportOpts := export.DefaultOptions()
		if opts.ExportDir != "" {
			exportOpts.OutputDir = opts.ExportDir
		}

		var path string
		var err error
		switch opts.ExportFormat {
		case "markdown":
			path, err = export.ExportMarkdown(&snap, exportOpts)
		default:
			path, err = export.ExportJSON(&snap, exportOpts)
		}
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		startQuiz(m.engine),
		waitForSubmission(m.submissions),
	)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state == StateSubmitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case QuizStartedMsg:
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case DebouncedSubmitMsg:
		m.state = StateSubmitting
		m.submitStart = time.Now()
		m.statusMsg = ""
		m.refreshViewport()
		// Re-arm the listener before the turn resolves so a submit
		// queued during the gateway call is not lost.
		return m, tea.Batch(
			m.spinner.Tick,
			submitTurn(m.engine, msg.Text),
			waitForSubmission(m.submissions),
		)

	case TurnResultMsg:
		return m.handleTurnResult(msg)

	case ExportDoneMsg:
		if msg.Err != nil {
			err := NewErrorMsg("Export failed", msg.Err.Error())
			m.lastError = &err
			m.state = StateError
			return m, nil
		}
		m.statusMsg = "Results written to " + msg.Path
		return m, nil

	case ErrorMsg:
		m.lastError = &msg
		m.state = StateError
		return m, nil

	case ErrorDismissMsg:
		m.lastError = nil
		if m.state == StateError {
			m.state = StateReady
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// header (3) + input (3) + status (1)
	viewportHeight := msg.Height - 7
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = viewportHeight
	m.input.Width = msg.Width - 4

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.debouncer.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	// Any other key closes the help overlay.
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmitKey()

	case key.Matches(msg, m.keyMap.ClearInput):
		if m.lastError != nil {
			m.lastError = nil
			if m.state == StateError {
				m.state = StateReady
			}
			return m, nil
		}
		m.input.Reset()
		return m, nil

	case key.Matches(msg, m.keyMap.Reset):
		m.debouncer.Cancel()
		m.engine.Reset()
		m.lastError = nil
		m.statusMsg = ""
		m.quizDone = false
		m.state = StateReady
		m.input.Reset()
		m.refreshViewport()
		return m, startQuiz(m.engine)

	case key.Matches(msg, m.keyMap.Export):
		return m, exportResults(m.engine, m.opts)
	}

	return m.updateComponents(msg)
}

// handleSubmitKey captures the current input and hands it to the
// debouncer. The engine is not touched here: the turn runs only if the
// debounce window settles without another submit replacing it.
func (m Model) handleSubmitKey() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.input.Reset()
	m.statusMsg = "..."

	m.debouncer.Trigger(func() {
		m.queueSubmission(text)
	})

	return m, nil
}

func (m Model) handleTurnResult(msg TurnResultMsg) (tea.Model, tea.Cmd) {
	if msg.Result.Dropped {
		// No-op turn: a reset raced the call or a duplicate slipped in.
		m.state = StateReady
		return m, nil
	}

	if msg.Result.Err != nil {
		// The engine already rolled the log back; show the failure and
		// leave the transcript as it was before the submit.
		err := NewErrorMsg("Request failed", msg.Result.Err.Error())
		m.lastError = &err
		m.state = StateError
		m.refreshViewport()
		return m, nil
	}

	m.state = StateReady
	m.statusMsg = fmt.Sprintf("Answered in %.1fs", msg.Elapsed.Seconds())
	m.refreshViewport()
	m.viewport.GotoBottom()

	if !m.quizDone && m.engine.State() == quiz.StateFreeConversation {
		m.quizDone = true
		m.statusMsg = "Quiz complete. Press ctrl+e to export your results."
	}

	return m, nil
}

// updateComponents forwards unhandled messages to the focused input and
// the viewport (page keys, mouse wheel).
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}
