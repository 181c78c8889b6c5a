// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"errors"
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrParseUnavailable is returned when the markdown parser cannot run.
// Malformed markdown is never an error.
var ErrParseUnavailable = errors.New("markdown parser unavailable")

// newParser builds a goldmark parser whose styled constructs report their
// extents to rec. Setext headings, indented code and HTML blocks are still
// recognized so their contents are not mistaken for styled text. Link
// reference definitions are not collected: a definition on a later line
// must not change how an earlier line renders.
func newParser(rec *recorder) parser.Parser {
	emphasis := &emphasisProcessor{rec: rec}
	return parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewSetextHeadingParser(), 100),
			util.Prioritized(parser.NewThematicBreakParser(), 200),
			util.Prioritized(parser.NewListParser(), 300),
			util.Prioritized(parser.NewListItemParser(), 400),
			util.Prioritized(parser.NewCodeBlockParser(), 500),
			util.Prioritized(&atxHeadingParser{BlockParser: parser.NewATXHeadingParser(), rec: rec}, 600),
			util.Prioritized(&fencedCodeParser{BlockParser: parser.NewFencedCodeBlockParser(), rec: rec}, 700),
			util.Prioritized(parser.NewBlockquoteParser(), 800),
			util.Prioritized(parser.NewHTMLBlockParser(), 900),
			util.Prioritized(&lineParagraphParser{BlockParser: parser.NewParagraphParser()}, 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(&codeSpanParser{InlineParser: parser.NewCodeSpanParser(), rec: rec}, 100),
			util.Prioritized(parser.NewLinkParser(), 200),
			util.Prioritized(parser.NewAutoLinkParser(), 300),
			util.Prioritized(parser.NewRawHTMLParser(), 400),
			util.Prioritized(&emphasisParser{processor: emphasis}, 500),
		),
	)
}

// Tag returns the style markers of source, sorted by offset. Every styled
// construct contributes one Begin and one End marker; at equal offsets End
// markers precede Begin markers.
func Tag(source string) (markers []Marker, err error) {
	defer func() {
		if r := recover(); r != nil {
			markers, err = nil, fmt.Errorf("%w: %v", ErrParseUnavailable, r)
		}
	}()

	if source == "" {
		return nil, nil
	}

	rec := newRecorder()
	doc := newParser(rec).Parse(text.NewReader([]byte(source)))

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading, *ast.FencedCodeBlock, *ast.CodeSpan, *ast.Emphasis:
			if s, ok := rec.lookup(n); ok {
				markers = append(markers,
					Marker{Kind: s.begin, Offset: s.start},
					Marker{Kind: s.end, Offset: min(s.stop, len(source))},
				)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown tree: %w", err)
	}

	sortMarkers(markers)
	return markers, nil
}
