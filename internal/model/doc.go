// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: the messages exchanged with one model plus its system prompt
//   - Message: single message with role, content and timestamp
//   - Role: message role enumeration (user, assistant, system)
//
// # Usage
//
//	conv := model.NewConversation("gpt-4o", "Answer briefly.")
//	conv.AddUserMessage("Hello!")
//	history := conv.History() // system prompt first
package model
