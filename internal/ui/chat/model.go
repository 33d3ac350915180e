// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the quiz view component for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/quizchat-tui/internal/debounce"
	"github.com/jeranaias/quizchat-tui/internal/quiz"
	"github.com/jeranaias/quizchat-tui/internal/ui/styles"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// State represents the current state of the quiz view.
type State int

const (
	StateReady      State = iota // Ready for input
	StateSubmitting              // A turn is with the gateway
	StateError                   // Showing an error
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the quiz view.
type Options struct {
	// QuizName labels the header and export snapshots.
	QuizName string

	// ExportDir is where Ctrl+E writes result files.
	ExportDir string

	// ExportFormat is "json" or "markdown".
	ExportFormat string

	// DebounceDelay overrides the default submit debounce window.
	// Zero keeps the default.
	DebounceDelay time.Duration

	// Scheduler overrides the debounce timer source. Nil uses real
	// timers; tests inject a fake for determinism.
	Scheduler debounce.Scheduler
}

// =============================================================================
// QUIZ MODEL
// =============================================================================

// Model is the Bubble Tea model for the quiz view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Engine owns the conversation log, cursor, and archive.
	engine *quiz.Engine

	// Debounced submit path. The debouncer fires on a timer goroutine;
	// submissions carries the fired text back into the Bubble Tea loop.
	debouncer   *debounce.Debouncer
	submissions chan string

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Markdown rendering for assistant replies. Nil falls back to
	// plain text.
	renderer *glamour.TermRenderer

	// Error state
	lastError *ErrorMsg

	// Status
	statusMsg   string
	submitStart time.Time
	quizDone    bool
	showHelp    bool

	opts Options
}

// New creates a new quiz model over an engine.
func New(theme *styles.Theme, engine *quiz.Engine, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your answer..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII spinner frames so the indicator renders on every terminal.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}
	sp.Style = theme.Spinner

	delay := opts.DebounceDelay
	if delay <= 0 {
		delay = debounce.DefaultDelay
	}
	var deb *debounce.Debouncer
	if opts.Scheduler != nil {
		deb = debounce.NewWithScheduler(delay, opts.Scheduler)
	} else {
		deb = debounce.New(delay)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		renderer = nil
	}

	return Model{
		state:       StateReady,
		theme:       theme,
		engine:      engine,
		debouncer:   deb,
		submissions: make(chan string, 1),
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
		renderer:    renderer,
		opts:        opts,
	}
}

// queueSubmission hands fired text to the event loop. If the loop has
// not consumed the previous submission yet, the newer text replaces it:
// last submission wins.
func (m Model) queueSubmission(text string) {
	for {
		select {
		case m.submissions <- text:
			return
		default:
		}
		select {
		case <-m.submissions:
		default:
		}
	}
}

// State returns the current view state.
func (m Model) State() State {
	return m.state
}

// Engine returns the underlying quiz engine.
func (m Model) Engine() *quiz.Engine {
	return m.engine
}
