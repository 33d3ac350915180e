// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// TypeQuestion marks an assistant message that presents a scripted quiz
// question rather than a model-generated reply.
const TypeQuestion = "question"

// Message represents a single message in a conversation.
//
// Messages are immutable once appended to a Conversation; the only
// permitted removal is rollback of a failed user turn, identified by ID.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// QuestionID links the message to an entry in the quiz catalog.
	// Nil for messages outside the scripted quiz flow.
	QuestionID *int `json:"question_id,omitempty"`

	// Type is TypeQuestion for scripted question messages, empty otherwise.
	Type string `json:"type,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message tagged with a question index.
func NewUserMessage(content string, questionID int) *Message {
	msg := NewMessage(RoleUser, content)
	msg.QuestionID = &questionID
	return msg
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// NewQuestionMessage creates an assistant message presenting a scripted
// quiz question.
func NewQuestionMessage(content string, questionID int) *Message {
	msg := NewMessage(RoleAssistant, content)
	msg.QuestionID = &questionID
	msg.Type = TypeQuestion
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// IsQuestion reports whether the message presents a scripted question.
func (m *Message) IsQuestion() bool {
	return m.Type == TypeQuestion
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
