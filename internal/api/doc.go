// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements a client for OpenAI-compatible chat completion APIs.
//
// Any server exposing POST <base>/chat/completions with the OpenAI request
// and response shapes works: hosted providers, llama.cpp, Ollama, vLLM and
// similar local servers.
//
// # Key Types
//
//   - Client: HTTP client with bearer auth, retry and optional rate limiting
//   - SSEReader: Server-Sent Events parser for streamed completions
//   - APIError: non-2xx response or in-stream error reported by the server
//   - StreamError: a stream that broke after some content arrived
//
// # Usage
//
//	client := api.NewClient("http://localhost:11434/v1", "llama3").
//	    WithAPIKey(key)
//	err := client.ChatStream(ctx, conv.History(), func(fragment string) error {
//	    return writer.AddFragment(fragment)
//	})
//
// # Security
//
// API keys are never logged. Request logging covers method, path, status
// and duration only.
package api
