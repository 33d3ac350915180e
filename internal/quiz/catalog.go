// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package quiz implements the conversation state machine that drives a
// scripted quiz through a chat interface.
package quiz

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed questions.json
var defaultQuestions []byte

// Question is a single scripted quiz question.
type Question struct {
	Question string  `json:"question"`
	MaxScore float64 `json:"maxScore"`
}

// Catalog is the immutable, externally supplied ordered question
// sequence. It is loaded once at session start and never mutated by the
// engine.
type Catalog []Question

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (Catalog, error) {
	return parseCatalog(defaultQuestions)
}

// LoadCatalog reads a catalog from a JSON file. An empty path falls back
// to the embedded default.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse question catalog: %w", err)
	}
	for i, q := range catalog {
		if q.Question == "" {
			return nil, fmt.Errorf("question %d has empty text", i)
		}
	}
	return catalog, nil
}

// Len returns the number of questions.
func (c Catalog) Len() int {
	return len(c)
}
