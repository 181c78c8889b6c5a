// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

// Style is the pair of codes written around one construct.
type Style struct {
	Begin string
	End   string
}

// Theme maps each styled construct to its codes. Each construct owns one
// axis, so an End code must only reset that axis (for example SGR 39, not
// SGR 0).
type Theme struct {
	Heading Style
	Code    Style
	Strong  Style
}

// SGR codes used by DefaultTheme.
const (
	sgrYellow        = "\x1b[33m"
	sgrDefaultFg     = "\x1b[39m"
	sgrBrightBlackBg = "\x1b[100m"
	sgrDefaultBg     = "\x1b[49m"
	sgrBold          = "\x1b[1m"
	sgrNormalWeight  = "\x1b[22m"
)

// DefaultTheme returns the ANSI theme: yellow headings, grey code
// background, bold strong emphasis.
func DefaultTheme() Theme {
	return Theme{
		Heading: Style{Begin: sgrYellow, End: sgrDefaultFg},
		Code:    Style{Begin: sgrBrightBlackBg, End: sgrDefaultBg},
		Strong:  Style{Begin: sgrBold, End: sgrNormalWeight},
	}
}

// PlainTheme returns a theme without codes. Highlight output is then equal
// to its input.
func PlainTheme() Theme {
	return Theme{}
}

// code returns the string written for a marker kind.
func (t Theme) code(kind StyleKind) string {
	switch kind {
	case HeadingBegin:
		return t.Heading.Begin
	case HeadingEnd:
		return t.Heading.End
	case CodeBegin:
		return t.Code.Begin
	case CodeEnd:
		return t.Code.End
	case StrongBegin:
		return t.Strong.Begin
	case StrongEnd:
		return t.Strong.End
	}
	return ""
}
