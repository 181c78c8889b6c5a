// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"io"
	"log"

	"github.com/jeranaias/lmc/internal/markdown"
	"github.com/jeranaias/lmc/internal/model"
	"github.com/jeranaias/lmc/internal/render"
)

// Completer produces answers for a conversation. *api.Client implements it.
type Completer interface {
	Chat(ctx context.Context, messages []model.Message) (string, error)
	ChatStream(ctx context.Context, messages []model.Message, fn func(fragment string) error) error
}

// SessionOptions control how a Session requests and renders answers.
type SessionOptions struct {
	// Stream requests answers as event streams and renders them
	// incrementally.
	Stream bool

	// Document selects the renderer for non-streamed answers. Its Theme
	// also styles streamed answers.
	Document render.DocumentOptions

	Logger *log.Logger
}

// Session drives one conversation: it sends the history to the model,
// renders the answer to the terminal and records it.
type Session struct {
	client Completer
	conv   *model.Conversation
	out    io.Writer
	opts   SessionOptions
	logger *log.Logger
}

// NewSession creates a session writing answers to out.
func NewSession(client Completer, conv *model.Conversation, out io.Writer, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		client: client,
		conv:   conv,
		out:    out,
		opts:   opts,
		logger: logger,
	}
}

// Conversation returns the conversation the session records into.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// Ask adds prompt to the conversation and answers it. The prompt stays in
// the conversation when the request fails, so it can be retried.
func (s *Session) Ask(ctx context.Context, prompt string) error {
	s.conv.AddUserMessage(prompt)
	return s.respond(ctx)
}

// Retry drops the last answer, if any, and asks the model again.
func (s *Session) Retry(ctx context.Context) error {
	s.conv.DropTrailingAssistant()
	if !s.conv.HasPrompt() {
		return ErrNothingToRetry
	}
	return s.respond(ctx)
}

// respond requests an answer for the current history, renders it and
// records it as the assistant's message.
func (s *Session) respond(ctx context.Context) error {
	history := s.conv.History()
	s.logger.Printf("requesting answer for %d messages (stream=%t)", len(history), s.opts.Stream)

	var (
		answer string
		err    error
	)
	if s.opts.Stream {
		answer, err = s.stream(ctx, history)
	} else {
		answer, err = s.complete(ctx, history)
	}
	if err != nil {
		return err
	}

	s.conv.AddAssistantMessage(answer)
	return nil
}

// stream renders fragments as they arrive. Whatever was received is
// flushed to the terminal even when the stream fails.
func (s *Session) stream(ctx context.Context, history []model.Message) (string, error) {
	out := bufio.NewWriter(s.out)
	writer := render.NewStreamWriter(out, s.theme())

	streamErr := s.client.ChatStream(ctx, history, writer.AddFragment)
	answer, completeErr := writer.Complete()
	if streamErr != nil {
		return "", streamErr
	}
	if completeErr != nil {
		return "", completeErr
	}
	return answer, nil
}

// complete renders a whole answer at once.
func (s *Session) complete(ctx context.Context, history []model.Message) (string, error) {
	answer, err := s.client.Chat(ctx, history)
	if err != nil {
		return "", err
	}
	if err := render.Document(s.out, answer, s.opts.Document); err != nil {
		return "", err
	}
	return answer, nil
}

func (s *Session) theme() markdown.Theme {
	return s.opts.Document.Theme
}
