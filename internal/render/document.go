// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/lmc/internal/markdown"
)

// Renderer names accepted by the "renderer" configuration key.
const (
	RendererHighlight = "highlight"
	RendererGlamour   = "glamour"
)

// DefaultWordWrap is the glamour wrap width when none is given.
const DefaultWordWrap = 80

// DocumentOptions controls how a complete response is rendered.
type DocumentOptions struct {
	// Renderer is RendererHighlight (default) or RendererGlamour.
	Renderer string

	// Theme styles the highlight renderer.
	Theme markdown.Theme

	// Colors selects glamour's terminal style; without it glamour renders
	// plain text.
	Colors bool

	// WordWrap is the glamour wrap width.
	WordWrap int
}

// Document renders a complete response to out. The highlight renderer
// produces exactly what a StreamWriter fed the same text would.
func Document(out io.Writer, text string, opts DocumentOptions) error {
	if text == "" {
		return nil
	}

	var rendered string
	switch opts.Renderer {
	case "", RendererHighlight:
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		styled, err := markdown.Highlight(text, opts.Theme)
		if err != nil {
			return err
		}
		rendered = styled
	case RendererGlamour:
		styled, err := renderGlamour(text, opts)
		if err != nil {
			return err
		}
		rendered = styled
	default:
		return fmt.Errorf("render: unknown renderer %q", opts.Renderer)
	}

	if _, err := io.WriteString(out, rendered); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	if f, ok := out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return &WriteError{Op: "flush", Err: err}
		}
	}
	return nil
}

func renderGlamour(text string, opts DocumentOptions) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if opts.Colors {
		style = glamour.WithAutoStyle()
	}
	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = DefaultWordWrap
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", fmt.Errorf("render: create glamour renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("render: glamour: %w", err)
	}
	return out, nil
}
