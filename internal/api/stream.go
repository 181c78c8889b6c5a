// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jeranaias/lmc/internal/model"
)

// STREAMING: SSE parsing with error handling

// MaxEventSize is the maximum allowed size of a single SSE event (1MB).
const MaxEventSize = 1024 * 1024

// doneSentinel is the data of the event that ends a completion stream.
const doneSentinel = "[DONE]"

// streamChunk is the data of one streamed completion event.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *errorBody `json:"error"`
}

// content returns the content from the first choice's delta.
func (c *streamChunk) content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event from the stream.
// Returns the event type, the data lines joined with '\n', and any error.
// Events without data are skipped. Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var data []byte
	hasData := false

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && (err != io.EOF || len(line) == 0) {
			if err == io.EOF && hasData {
				return eventType, data, nil
			}
			return "", nil, err
		}
		atEOF := err == io.EOF

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if hasData {
				return eventType, data, nil
			}
			eventType = ""
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			eventType = string(value)
		case "data":
			if hasData {
				data = append(data, '\n')
			}
			data = append(data, value...)
			hasData = true
			if len(data) > MaxEventSize {
				return "", nil, fmt.Errorf("event exceeds maximum size of %d bytes", MaxEventSize)
			}
		}
		// Ignore other fields (id:, retry:, comments starting with :)

		if atEOF {
			if hasData {
				return eventType, data, nil
			}
			return "", nil, io.EOF
		}
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream requests a streamed answer for messages and calls fn with each
// non-empty content fragment in arrival order, on the calling goroutine.
//
// The stream ends at the "[DONE]" event or when the server closes the
// connection. An error returned by fn aborts the stream and is returned
// as is. A read failure after some content arrived is a *StreamError.
func (c *Client) ChatStream(ctx context.Context, messages []model.Message, fn func(fragment string) error) error {
	resp, err := c.send(ctx, chatRequest{
		Model:       c.model,
		Messages:    toWire(messages),
		Stream:      true,
		Temperature: c.temperature,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.processStream(ctx, resp, fn)
}

// processStream reads and processes the SSE stream.
func (c *Client) processStream(ctx context.Context, resp *http.Response, fn func(string) error) error {
	reader := NewSSEReader(resp.Body)
	var received strings.Builder

	fail := func(err error) error {
		if received.Len() > 0 {
			return &StreamError{Partial: received.String(), Err: err}
		}
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ctxErr)
			}
			return fail(fmt.Errorf("failed to read stream: %w", err))
		}

		if string(bytes.TrimSpace(data)) == doneSentinel {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fail(fmt.Errorf("failed to parse stream event: %w", err))
		}
		if chunk.Error != nil {
			return fail(&APIError{
				Status:  resp.StatusCode,
				Code:    chunk.Error.code(),
				Message: chunk.Error.Message,
			})
		}

		fragment := chunk.content()
		if fragment == "" {
			continue
		}
		received.WriteString(fragment)
		if err := fn(fragment); err != nil {
			return err
		}
	}
}
