// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func TestArchive_LastWriteWins(t *testing.T) {
	a := New()
	a.Record(0, "Q1", "first answer")
	a.Record(0, "Q1", "second answer")

	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", a.Len())
	}
	e, ok := a.Get(0)
	if !ok {
		t.Fatal("Get(0) missing")
	}
	if e.Response != "second answer" {
		t.Errorf("Response = %q, want %q", e.Response, "second answer")
	}
}

func TestSnapshot_SortedAscending(t *testing.T) {
	a := New()
	// Insert out of order to exercise the sort.
	a.Record(2, "Q3", "A3")
	a.Record(0, "Q1", "A1")
	a.Record(1, "Q2", "A2")

	snap := a.Snapshot("Personal Growth Quiz")

	if snap.QuizName != "Personal Growth Quiz" {
		t.Errorf("QuizName = %q", snap.QuizName)
	}
	if len(snap.Responses) != 3 {
		t.Fatalf("Responses len = %d, want 3", len(snap.Responses))
	}
	for i, r := range snap.Responses {
		if r.QuestionID != i {
			t.Errorf("Responses[%d].QuestionID = %d, want %d", i, r.QuestionID, i)
		}
	}
	if snap.Responses[0].Response != "A1" || snap.Responses[2].Response != "A3" {
		t.Error("responses not ordered by question index")
	}
}

func TestSnapshot_EmptyArchive(t *testing.T) {
	snap := New().Snapshot("Empty Quiz")

	if snap.Responses == nil {
		t.Fatal("Responses should be an empty slice, not nil")
	}
	if len(snap.Responses) != 0 {
		t.Errorf("Responses len = %d, want 0", len(snap.Responses))
	}

	// The JSON document must carry an empty array, not null.
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"responses":[]`) {
		t.Errorf("export JSON = %s, want empty responses array", data)
	}
}

func TestSnapshot_FieldShape(t *testing.T) {
	a := New()
	a.Record(0, "Q1", "A1")

	data, err := json.Marshal(a.Snapshot("quiz"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"quizName", "completionDate", "responses"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("export document missing %q", key)
		}
	}
	if len(doc) != 3 {
		t.Errorf("export document has %d fields, want 3", len(doc))
	}

	responses, ok := doc["responses"].([]any)
	if !ok || len(responses) != 1 {
		t.Fatalf("responses = %v, want one entry", doc["responses"])
	}
	entry, ok := responses[0].(map[string]any)
	if !ok {
		t.Fatalf("entry is %T, want object", responses[0])
	}
	for _, key := range []string{"question", "response", "timestamp", "insights"} {
		if _, present := entry[key]; !present {
			t.Errorf("entry missing %q", key)
		}
	}
	if len(entry) != 4 {
		t.Errorf("entry has %d fields, want 4: %v", len(entry), entry)
	}
}

func TestArchive_Clear(t *testing.T) {
	a := New()
	a.Record(0, "Q1", "A1")
	a.Clear()

	if a.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", a.Len())
	}
	if _, ok := a.Get(0); ok {
		t.Error("Get(0) should miss after Clear")
	}
}

// Readers and writers hit the archive from different goroutines without
// external locking. Run with -race.
func TestArchive_ConcurrentRecordAndRead(t *testing.T) {
	a := New()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				a.Record(i%5, "Q", "A")
			}
		}(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				a.Len()
				a.Snapshot("quiz")
				a.Get(i % 5)
			}
		}()
	}
	wg.Wait()

	if a.Len() != 5 {
		t.Errorf("Len() = %d, want 5", a.Len())
	}
}
