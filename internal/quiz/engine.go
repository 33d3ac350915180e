// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package quiz

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/quizchat-tui/internal/archive"
	"github.com/jeranaias/quizchat-tui/internal/gateway"
	"github.com/jeranaias/quizchat-tui/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State identifies where the engine is in the quiz flow.
type State int

const (
	// StateIdle means no quiz has been started.
	StateIdle State = iota

	// StatePresentingQuestion means the next scripted question has been
	// appended and awaits a user reply.
	StatePresentingQuestion

	// StateAwaitingResponse means a user turn is with the gateway and no
	// result has arrived yet.
	StateAwaitingResponse

	// StateFreeConversation means the quiz is exhausted or the session
	// diverged; turns are still proxied but the cursor no longer moves.
	StateFreeConversation
)

// String returns a name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePresentingQuestion:
		return "PresentingQuestion"
	case StateAwaitingResponse:
		return "AwaitingResponse"
	case StateFreeConversation:
		return "FreeConversation"
	default:
		return "Unknown"
	}
}

// Cursor points into the question catalog.
type Cursor struct {
	CurrentQuestionIndex int
	Started              bool
	InFreeConversation   bool
}

// Completer abstracts the proxy gateway. The engine treats every
// non-success uniformly for rollback purposes regardless of taxonomy.
type Completer interface {
	Complete(ctx context.Context, payload gateway.Payload) (json.RawMessage, error)
}

// =============================================================================
// SUBMIT RESULT
// =============================================================================

// SubmitResult reports the outcome of one user turn.
type SubmitResult struct {
	// Dropped is true when the submit was a no-op: empty text after
	// trimming, a request already in flight, or the quiz not started.
	Dropped bool

	// Reply is the assistant message appended on success.
	Reply *model.Message

	// NextQuestion is the scripted question appended after a cursor
	// advance, nil when the turn ended the quiz or was free conversation.
	NextQuestion *model.Message

	// Err carries the gateway failure after rollback. The log is already
	// restored to its pre-submit content when Err is set.
	Err error
}

// =============================================================================
// ENGINE
// =============================================================================

// pendingRequest is the at-most-one in-flight user turn. Ownership lies
// exclusively with the engine: set by Submit, cleared on resolution or
// reset.
type pendingRequest struct {
	messageID  string
	questionID int
	generation uint64
}

// Engine owns the ordered message log, the quiz cursor, and the
// transition rules between presenting a question, awaiting a reply, and
// free conversation.
//
// The mutex exists because Submit suspends on the gateway call; state
// mutations happen only at turn boundaries, keeping the single-writer
// discipline of the surrounding event loop.
type Engine struct {
	mu sync.Mutex

	catalog   Catalog
	quizModel string

	conversation *model.Conversation
	arch         *archive.Archive
	completer    Completer

	state   State
	cursor  Cursor
	pending *pendingRequest

	// generation invalidates in-flight turns across a reset.
	generation uint64
}

// NewEngine creates an engine over a catalog and a completer. quizModel
// is the upstream model identifier placed in each payload.
func NewEngine(catalog Catalog, completer Completer, quizModel string) *Engine {
	return &Engine{
		catalog:      catalog,
		quizModel:    quizModel,
		conversation: model.NewConversation(),
		arch:         archive.New(),
		completer:    completer,
		state:        StateIdle,
	}
}

// Conversation returns the ordered message log.
func (e *Engine) Conversation() *model.Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversation
}

// Messages returns a point-in-time copy of the message log. Safe to
// read while a turn is in flight; messages are immutable once appended.
func (e *Engine) Messages() []*model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := make([]*model.Message, len(e.conversation.Messages))
	copy(msgs, e.conversation.Messages)
	return msgs
}

// Archive returns the response archive (read-only use at export time).
func (e *Engine) Archive() *archive.Archive {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arch
}

// QuestionCount returns the size of the question catalog. The catalog is
// immutable after construction.
func (e *Engine) QuestionCount() int {
	return e.catalog.Len()
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CursorState returns a copy of the quiz cursor.
func (e *Engine) CursorState() Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// HasPending reports whether a user turn is in flight.
func (e *Engine) HasPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Start begins the quiz: Idle -> PresentingQuestion when the catalog is
// non-empty, appending the first scripted question. Starting an already
// started session, or starting with an empty catalog, is a no-op.
func (e *Engine) Start() *model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle || e.catalog.Len() == 0 {
		return nil
	}

	e.cursor.Started = true
	e.state = StatePresentingQuestion
	return e.presentLocked()
}

// presentLocked appends the scripted question at the cursor. Caller
// holds the mutex.
func (e *Engine) presentLocked() *model.Message {
	idx := e.cursor.CurrentQuestionIndex
	return e.conversation.AddQuestionMessage(e.catalog[idx].Question, idx)
}

// Submit processes one user turn: it appends the user message, issues
// exactly one gateway call, and on resolution either appends the
// assistant reply or rolls the user message back.
//
// Guards: text empty after trimming, a pending request outstanding, or a
// session that has not started are all silent no-ops, not errors. Only
// one Submit may be outstanding at a time; concurrent calls while a
// request is pending are dropped.
//
// The call suspends between "payload validated" and "upstream response
// received"; the mutex is released for that window so readers and the
// single-flight guard stay live.
func (e *Engine) Submit(ctx context.Context, text string) SubmitResult {
	trimmed := strings.TrimSpace(text)

	e.mu.Lock()
	if trimmed == "" || e.pending != nil || e.state == StateIdle || e.state == StateAwaitingResponse {
		e.mu.Unlock()
		return SubmitResult{Dropped: true}
	}

	questionID := e.cursor.CurrentQuestionIndex
	userMsg := e.conversation.AddUserMessage(trimmed, questionID)

	// Retain the handle for rollback: removal by ID, never by content
	// match, so duplicate consecutive submissions stay unambiguous.
	pending := &pendingRequest{
		messageID:  userMsg.ID,
		questionID: questionID,
		generation: e.generation,
	}
	e.pending = pending

	priorState := e.state
	e.state = StateAwaitingResponse
	e.mu.Unlock()

	payload := gateway.Payload{
		Model:    e.quizModel,
		Messages: []gateway.ChatMessage{{Role: "user", Content: trimmed}},
	}
	raw, err := e.completer.Complete(ctx, payload)

	var reply string
	if err == nil {
		reply, err = gateway.ExtractContent(raw)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A reset while the call was in flight invalidated this turn.
	if e.pending != pending || pending.generation != e.generation {
		return SubmitResult{Dropped: true}
	}
	e.pending = nil

	if err != nil {
		// Rollback: drop the exact message this submit appended and keep
		// the original state. The user's text is not restored.
		e.conversation.Remove(pending.messageID)
		e.state = priorState
		log.Printf("TURN_FAILED | question=%d error=%v", questionID, err)
		return SubmitResult{Err: err}
	}

	assistantMsg := e.conversation.AddAssistantMessage(reply)

	result := SubmitResult{Reply: assistantMsg}

	if priorState == StatePresentingQuestion {
		e.arch.Record(questionID, e.catalog[questionID].Question, trimmed)

		if questionID+1 < e.catalog.Len() {
			e.cursor.CurrentQuestionIndex++
			e.state = StatePresentingQuestion
			result.NextQuestion = e.presentLocked()
		} else {
			e.cursor.InFreeConversation = true
			e.state = StateFreeConversation
		}
	} else {
		// Free conversation: proxied turn, no cursor advance, no archive
		// write.
		e.state = StateFreeConversation
	}

	return result
}

// Reset clears the conversation log, quiz cursor, and response archive
// atomically, returning to Idle. Valid from any state; any in-flight
// turn is invalidated and will resolve as a dropped no-op.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	e.pending = nil
	e.conversation.Clear()
	e.arch.Clear()
	e.cursor = Cursor{}
	e.state = StateIdle
}
