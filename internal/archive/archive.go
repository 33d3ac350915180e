// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive records user quiz answers keyed by question identity
// and produces the export snapshot consumed by the file writer.
package archive

import (
	"sort"
	"sync"
	"time"
)

// =============================================================================
// ARCHIVE
// =============================================================================

// Entry records a single answered question. Insights are derived later;
// the archive only carries them.
type Entry struct {
	Question  string   `json:"question"`
	Response  string   `json:"response"`
	Timestamp string   `json:"timestamp"`
	Insights  []string `json:"insights"`
}

// Archive is the side table of answers keyed by question index. Keys are
// unique; the last write per question wins. It is created empty at
// session start and cleared on explicit reset.
//
// The archive carries its own lock: the view and the export command read
// it from goroutines that never hold the engine mutex, while a resolving
// turn writes to it.
type Archive struct {
	mu      sync.Mutex
	entries map[int]Entry
}

// New creates an empty archive.
func New() *Archive {
	return &Archive{entries: make(map[int]Entry)}
}

// Record writes or overwrites the entry for a question index, stamping
// it with the current time in RFC 3339 format.
func (a *Archive) Record(questionID int, question, response string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[questionID] = Entry{
		Question:  question,
		Response:  response,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Insights:  []string{},
	}
}

// Get returns the entry for a question index.
func (a *Archive) Get(questionID int) (Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[questionID]
	return e, ok
}

// Len returns the number of recorded answers.
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Clear empties the archive.
func (a *Archive) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = make(map[int]Entry)
}

// =============================================================================
// EXPORT SNAPSHOT
// =============================================================================

// Response is one exported answer. The question index orders the
// document but is not part of it: each serialized entry carries exactly
// question, response, timestamp, and insights.
type Response struct {
	QuestionID int      `json:"-"`
	Question   string   `json:"question"`
	Response   string   `json:"response"`
	Timestamp  string   `json:"timestamp"`
	Insights   []string `json:"insights"`
}

// Snapshot is the export document: a pure read of the archive.
type Snapshot struct {
	QuizName       string     `json:"quizName"`
	CompletionDate string     `json:"completionDate"`
	Responses      []Response `json:"responses"`
}

// Snapshot produces the export document with responses sorted by
// ascending question index. Map iteration order is not guaranteed, so
// sorting keeps the export deterministic. An empty archive yields an
// empty responses slice, never nil.
func (a *Archive) Snapshot(quizName string) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]int, 0, len(a.entries))
	for id := range a.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	responses := make([]Response, 0, len(ids))
	for _, id := range ids {
		e := a.entries[id]
		responses = append(responses, Response{
			QuestionID: id,
			Question:   e.Question,
			Response:   e.Response,
			Timestamp:  e.Timestamp,
			Insights:   e.Insights,
		})
	}

	return Snapshot{
		QuizName:       quizName,
		CompletionDate: time.Now().UTC().Format(time.RFC3339),
		Responses:      responses,
	}
}
