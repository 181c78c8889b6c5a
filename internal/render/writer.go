// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render writes model output to the terminal.
//
// StreamWriter styles a response while it is still arriving: fragments are
// buffered, the whole buffer is re-styled every time a line completes, and
// only the part of the styled text that can no longer change is written.
// Document renders a response that arrived in one piece.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/lmc/internal/markdown"
)

// WriteError reports a failure of the output sink.
type WriteError struct {
	Op  string // "write" or "flush"
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("render: %s output: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// flusher is implemented by buffered sinks such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// StreamWriter incrementally styles one streamed response.
//
// Emitted bytes are never revised: the concatenation of everything written
// to the sink equals the styling of the complete response. A StreamWriter
// is not safe for concurrent use and must not be reused for a second
// response.
type StreamWriter struct {
	out   io.Writer
	theme markdown.Theme

	raw     strings.Builder
	styled  string
	written int // bytes of styled already emitted
	err     error
}

// NewStreamWriter returns a StreamWriter emitting to out.
func NewStreamWriter(out io.Writer, theme markdown.Theme) *StreamWriter {
	return &StreamWriter{out: out, theme: theme}
}

// AddFragment appends a fragment of the response. When the fragment ends a
// line the buffer is re-styled and every complete line not yet written is
// emitted, except for the final line terminator and anything styled after
// it.
func (w *StreamWriter) AddFragment(fragment string) error {
	if w.err != nil {
		return w.err
	}
	w.raw.WriteString(fragment)
	if !strings.HasSuffix(fragment, "\n") {
		return nil
	}
	return w.restyle(false)
}

// Complete ends the response. A missing final line terminator is added,
// the buffer is styled one last time and the remainder is emitted. It
// returns the raw response text. A writer that received no fragments
// returns "" and writes nothing.
func (w *StreamWriter) Complete() (string, error) {
	if w.err != nil {
		return "", w.err
	}
	if w.raw.Len() == 0 {
		return "", nil
	}
	if !strings.HasSuffix(w.raw.String(), "\n") {
		w.raw.WriteByte('\n')
	}
	if err := w.restyle(true); err != nil {
		return "", err
	}
	return w.raw.String(), nil
}

// Text returns the raw text received so far.
func (w *StreamWriter) Text() string {
	return w.raw.String()
}

func (w *StreamWriter) restyle(final bool) error {
	styled, err := markdown.Highlight(w.raw.String(), w.theme)
	if err != nil {
		w.err = err
		return err
	}
	w.styled = styled

	cut := len(styled)
	if !final {
		// The last line terminator and any code after it (the end of a code
		// block that is still open) may move once more text arrives.
		cut = strings.LastIndexByte(styled, '\n')
	}
	if cut <= w.written {
		return nil
	}
	if err := w.emit(styled[w.written:cut]); err != nil {
		w.err = err
		return err
	}
	w.written = cut
	return nil
}

func (w *StreamWriter) emit(s string) error {
	if _, err := io.WriteString(w.out, s); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	if f, ok := w.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return &WriteError{Op: "flush", Err: err}
		}
	}
	return nil
}
