// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered message log for a quiz session.
//
// Insertion order is semantic: render order equals chronological order.
// The log is append-only; Remove exists solely so a failed user turn can
// be rolled back by the handle its submitter retained.
type Conversation struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`
}

// NewConversation creates a new empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + generateID(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// AddUserMessage creates and appends a user message for a question index.
func (c *Conversation) AddUserMessage(content string, questionID int) *Message {
	msg := NewUserMessage(content, questionID)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an assistant message.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	msg := NewAssistantMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddQuestionMessage creates and appends a scripted question message.
func (c *Conversation) AddQuestionMessage(content string, questionID int) *Message {
	msg := NewQuestionMessage(content, questionID)
	c.AddMessage(msg)
	return msg
}

// AddSystemMessage creates and appends a system message.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	c.AddMessage(msg)
	return msg
}

// Remove deletes the message with the given ID, scanning from the end of
// the log. It returns true if a message was removed. Rollback removes the
// most recent matching entry rather than mutating in place.
func (c *Conversation) Remove(id string) bool {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Clear removes all messages, returning the conversation to its initial
// empty state while keeping its identity.
func (c *Conversation) Clear() {
	c.Messages = c.Messages[:0]
	c.UpdatedAt = time.Now()
}

// Roles returns the ordered role sequence of the log. Question messages
// are reported as "question" to distinguish them from generated replies.
func (c *Conversation) Roles() []string {
	roles := make([]string, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.IsQuestion() {
			roles = append(roles, TypeQuestion)
			continue
		}
		roles = append(roles, msg.Role.String())
	}
	return roles
}
