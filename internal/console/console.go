// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console reads prompts from the terminal or from piped stdin.
//
// Interactive input is line edited with history (arrow keys, Ctrl+R). A
// line ending in a backslash continues the prompt on the next line.
package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/lmc/internal/util"
)

// Prompts shown for the first line of an input and for continuation lines.
const (
	PromptPrimary      = ">>> "
	PromptContinuation = "... "
)

// continuationMarker at the end of a line continues the input.
const continuationMarker = `\`

// ErrAborted is returned when the user presses Ctrl+C at the prompt.
var ErrAborted = errors.New("input aborted")

// Prompter reads one line of input. *liner.State implements it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// =============================================================================
// CONSOLE
// =============================================================================

// Console reads interactive prompts.
type Console struct {
	prompter    Prompter
	state       *liner.State
	historyPath string
}

// New opens a line editor on the terminal and loads history from
// historyPath when it is set. Close must be called to restore the terminal.
func New(historyPath string) *Console {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetMultiLineMode(true)

	c := &Console{
		prompter:    state,
		state:       state,
		historyPath: historyPath,
	}
	c.loadHistory()
	return c
}

// NewWithPrompter returns a Console that reads from p and keeps no history
// file.
func NewWithPrompter(p Prompter) *Console {
	return &Console{prompter: p}
}

// loadHistory loads input history from file. A missing file is not an error.
func (c *Console) loadHistory() {
	if c.state == nil || c.historyPath == "" {
		return
	}
	if f, err := os.Open(c.historyPath); err == nil {
		c.state.ReadHistory(f)
		f.Close()
	}
}

// SaveHistory persists input history with owner-only permissions.
func (c *Console) SaveHistory() error {
	if c.state == nil || c.historyPath == "" {
		return nil
	}
	var buf bytes.Buffer
	if _, err := c.state.WriteHistory(&buf); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return util.AtomicWriteFile(c.historyPath, buf.Bytes(), 0600)
}

// Close saves history and restores the terminal.
func (c *Console) Close() error {
	if c.state == nil {
		return nil
	}
	err := c.SaveHistory()
	if closeErr := c.state.Close(); err == nil {
		err = closeErr
	}
	return err
}

// ReadInput reads one prompt. Lines ending in a backslash are joined with
// the next line; the backslash is replaced by a newline.
//
// Ctrl+D returns io.EOF and Ctrl+C returns ErrAborted, discarding any
// continuation lines already typed.
func (c *Console) ReadInput() (string, error) {
	var buf strings.Builder
	prompt := PromptPrimary

	for {
		line, err := c.prompter.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return "", io.EOF
			case errors.Is(err, liner.ErrPromptAborted):
				return "", ErrAborted
			default:
				return "", fmt.Errorf("failed to read input: %w", err)
			}
		}

		if strings.TrimSpace(line) != "" {
			c.prompter.AppendHistory(line)
		}

		if rest, ok := strings.CutSuffix(line, continuationMarker); ok {
			buf.WriteString(rest)
			buf.WriteByte('\n')
			prompt = PromptContinuation
			continue
		}
		buf.WriteString(line)
		return norm.NFC.String(buf.String()), nil
	}
}

// =============================================================================
// PIPED INPUT
// =============================================================================

// ReadPiped reads the whole of r as one prompt. Interior newlines are kept;
// trailing line terminators are removed.
func ReadPiped(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(norm.NFC.String(string(data)), "\r\n"), nil
}
