// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown finds the styled regions of a markdown buffer and
// splices terminal styling codes around them.
//
// Only four constructs are styled:
//   - ATX headings (foreground color)
//   - fenced code blocks and inline code spans (background color)
//   - strong emphasis (font weight)
//
// Tag returns the style markers for a buffer, Highlight returns the buffer
// with the markers rendered through a Theme. Both are pure functions of
// their input, so a caller that appends to a buffer may re-run them over
// the whole buffer after every line.
//
// Inline constructs never span a line terminator and block structure only
// depends on earlier lines. A newline-terminated buffer therefore styles
// every complete line except a still-open fenced code block the same way
// any longer buffer starting with it does.
package markdown
