// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// goldmark keeps line segments for block nodes but no extents for headings,
// code spans or emphasis. The parsers below wrap goldmark's own and write
// the byte range of every styled construct into a recorder as it is parsed.

// span is the byte range [start, end) of a styled construct.
type span struct {
	begin StyleKind
	end   StyleKind
	start int
	stop  int
}

// fence tracks a fenced code block while it is still open.
type fence struct {
	start    int
	lastLine int  // end of the last line in the block, terminator included
	closeAt  int  // end of the closing fence line, terminator excluded
	closed   bool // a closing fence was seen
}

// delimiterUse counts how many characters of a delimiter run have been
// consumed from each side.
type delimiterUse struct {
	start  int
	length int
	left   int // consumed as a closer
	right  int // consumed as an opener
}

type recorder struct {
	spans  map[ast.Node]span
	fences map[ast.Node]*fence
	delims map[*parser.Delimiter]*delimiterUse

	// opener and closer of the pair accepted by the last CanOpenCloser call.
	opener, closer *parser.Delimiter
}

func newRecorder() *recorder {
	return &recorder{
		spans:  make(map[ast.Node]span),
		fences: make(map[ast.Node]*fence),
		delims: make(map[*parser.Delimiter]*delimiterUse),
	}
}

// lookup returns the recorded span of a node. Open fenced code blocks are
// resolved here: a block without a closing fence keeps its style through
// the terminator of its last line.
func (r *recorder) lookup(n ast.Node) (span, bool) {
	if f, ok := r.fences[n]; ok {
		stop := f.lastLine
		if f.closed {
			stop = f.closeAt
		}
		return span{begin: CodeBegin, end: CodeEnd, start: f.start, stop: stop}, true
	}
	s, ok := r.spans[n]
	return s, ok
}

// lineBase returns the source offset of line[0]. Segments that start inside
// a partially consumed tab carry padding bytes that are not in the source.
func lineBase(segment text.Segment) int {
	return segment.Start - segment.Padding
}

// firstNonSpace returns the source offset of the first non-blank byte of
// the line, never before the segment start.
func firstNonSpace(line []byte, segment text.Segment) int {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return max(lineBase(segment)+i, segment.Start)
}

// contentEnd returns the source offset where the line's content ends,
// before any line terminator.
func contentEnd(line []byte, segment text.Segment) int {
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	return max(lineBase(segment)+n, segment.Start)
}

// =============================================================================
// BLOCK PARSERS
// =============================================================================

// atxHeadingParser records the line of every ATX heading goldmark opens.
type atxHeadingParser struct {
	parser.BlockParser
	rec *recorder
}

func (p *atxHeadingParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	node, state := p.BlockParser.Open(parent, reader, pc)
	if node != nil {
		p.rec.spans[node] = span{
			begin: HeadingBegin,
			end:   HeadingEnd,
			start: firstNonSpace(line, segment),
			stop:  contentEnd(line, segment),
		}
	}
	return node, state
}

// fencedCodeParser follows a fenced code block line by line so its extent
// is known whether or not the closing fence ever arrives.
type fencedCodeParser struct {
	parser.BlockParser
	rec *recorder
}

func (p *fencedCodeParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	node, state := p.BlockParser.Open(parent, reader, pc)
	if node != nil {
		p.rec.fences[node] = &fence{
			start:    firstNonSpace(line, segment),
			lastLine: segment.Stop,
		}
	}
	return node, state
}

func (p *fencedCodeParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	state := p.BlockParser.Continue(node, reader, pc)
	f, ok := p.rec.fences[node]
	if !ok || line == nil {
		return state
	}
	if state&parser.Close != 0 {
		f.closed = true
		f.closeAt = contentEnd(line, segment)
	} else {
		f.lastLine = segment.Stop
	}
	return state
}

// lineParagraphParser ends every paragraph after its first line. Inline
// constructs then cannot cross a line terminator, so a complete line is
// styled the same way no matter what follows it.
//
// goldmark only asks an open paragraph to continue when no parser opens a
// block on the next line, and paragraphs normally cannot interrupt one
// another. Letting this parser interrupt (and take indented lines, which
// would otherwise be lazy continuations) makes the next text line open a
// paragraph of its own instead of being dropped.
type lineParagraphParser struct {
	parser.BlockParser
}

func (p *lineParagraphParser) Continue(ast.Node, text.Reader, parser.Context) parser.State {
	return parser.Close
}

func (p *lineParagraphParser) CanInterruptParagraph() bool {
	return true
}

func (p *lineParagraphParser) CanAcceptIndentedLine() bool {
	return true
}

// =============================================================================
// INLINE PARSERS
// =============================================================================

// codeSpanParser records the extent of every code span goldmark parses.
type codeSpanParser struct {
	parser.InlineParser
	rec *recorder
}

func (p *codeSpanParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	node := p.InlineParser.Parse(parent, block, pc)
	if _, ok := node.(*ast.CodeSpan); ok {
		if n := closingBackticks(line); n > 0 {
			p.rec.spans[node] = span{
				begin: CodeBegin,
				end:   CodeEnd,
				start: segment.Start,
				stop:  segment.Start + n,
			}
		}
	}
	return node
}

// closingBackticks returns the length of the line prefix that ends with the
// backtick run closing the run the line starts with, or 0 if there is none.
func closingBackticks(line []byte) int {
	opener := 0
	for opener < len(line) && line[opener] == '`' {
		opener++
	}
	for i := opener; i < len(line); {
		if line[i] != '`' {
			i++
			continue
		}
		j := i
		for j < len(line) && line[j] == '`' {
			j++
		}
		if j-i == opener {
			return j
		}
		i = j
	}
	return 0
}

// emphasisParser pushes '*' and '_' delimiter runs the same way goldmark's
// emphasis parser does, but resolves them with a processor that records
// where each match sits in the source.
type emphasisParser struct {
	processor *emphasisProcessor
}

func (p *emphasisParser) Trigger() []byte {
	return []byte{'*', '_'}
}

func (p *emphasisParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 1, p.processor)
	if node == nil {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

type emphasisProcessor struct {
	rec *recorder
}

func (p *emphasisProcessor) IsDelimiter(b byte) bool {
	return b == '*' || b == '_'
}

func (p *emphasisProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	if opener.Char != closer.Char {
		return false
	}
	p.rec.opener, p.rec.closer = opener, closer
	p.use(opener)
	p.use(closer)
	return true
}

// use returns the consumption state of a delimiter, seeding it the first
// time the delimiter takes part in a match.
func (p *emphasisProcessor) use(d *parser.Delimiter) *delimiterUse {
	u, ok := p.rec.delims[d]
	if !ok {
		u = &delimiterUse{start: d.Segment.Start, length: d.OriginalLength}
		p.rec.delims[d] = u
	}
	return u
}

// OnMatch is called after CanOpenCloser accepted the pair. An opener gives
// up its rightmost characters and a closer its leftmost ones.
func (p *emphasisProcessor) OnMatch(consumes int) ast.Node {
	node := ast.NewEmphasis(consumes)
	if p.rec.opener == nil || p.rec.closer == nil {
		return node
	}
	o, c := p.use(p.rec.opener), p.use(p.rec.closer)
	start := o.start + o.length - o.right - consumes
	stop := c.start + c.left + consumes
	o.right += consumes
	c.left += consumes
	p.rec.opener, p.rec.closer = nil, nil

	if consumes == 2 {
		p.rec.spans[node] = span{begin: StrongBegin, end: StrongEnd, start: start, stop: stop}
	}
	return node
}
