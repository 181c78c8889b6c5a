// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, the oldest messages are pruned to bound memory and request size.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the exchange with one model. The system prompt is not
// stored in Messages; History prepends it.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	Messages []*Message `json:"messages"`
}

// NewConversation creates an empty conversation.
func NewConversation(model, systemPrompt string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Model:        model,
		SystemPrompt: systemPrompt,
		Messages:     make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.pruneOldMessages()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds an assistant message.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	msg := NewAssistantMessage(content)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// DropTrailingAssistant removes the last message if it is an assistant
// answer, so the preceding prompt can be asked again. It reports whether a
// message was removed.
func (c *Conversation) DropTrailingAssistant() bool {
	last := c.GetLastMessage()
	if last == nil || last.Role != RoleAssistant {
		return false
	}
	c.Messages = c.Messages[:len(c.Messages)-1]
	c.UpdatedAt = time.Now()
	return true
}

// HasPrompt reports whether the conversation contains a user message.
func (c *Conversation) HasPrompt() bool {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return true
		}
	}
	return false
}

// ClearHistory removes all messages. The system prompt is kept.
func (c *Conversation) ClearHistory() {
	c.Messages = make([]*Message, 0)
	c.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages, not counting the system prompt.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// History returns the messages to send to the model: the system prompt
// first when one is set, then every message in order.
func (c *Conversation) History() []Message {
	history := make([]Message, 0, len(c.Messages)+1)
	if c.SystemPrompt != "" {
		history = append(history, Message{Role: RoleSystem, Content: c.SystemPrompt})
	}
	for _, msg := range c.Messages {
		history = append(history, *msg)
	}
	return history
}

// pruneOldMessages drops the oldest messages beyond MaxMessages.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	excess := len(c.Messages) - MaxMessages
	pruned := make([]*Message, MaxMessages)
	copy(pruned, c.Messages[excess:])
	c.Messages = pruned
}
