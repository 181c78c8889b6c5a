// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the lmc command line.
//
// # Key Types
//
//   - Session: sends a conversation to the model and renders the answer
//   - REPL: interactive loop with slash commands
//   - Completer: the model client a Session talks to
//
// # Modes
//
// With a terminal on stdin, lmc greets with the model and endpoint and reads
// prompts until Ctrl+D, Ctrl+C at the prompt, or /quit. With piped stdin
// the whole input is one prompt and the answer is printed once.
//
// # Slash Commands
//
//   - /q, /quit: exit
//   - /r, /retry: drop the last answer and ask again
//   - /c, /clear: forget the conversation, keeping the system prompt
//   - /history: list the messages so far
//   - /h, /help: show the command list
//
// # Exit Codes
//
//   - 0: success
//   - 1: general error (including a failed request in piped mode)
//   - 2: invalid command-line usage
//   - 3: configuration error
package cli
