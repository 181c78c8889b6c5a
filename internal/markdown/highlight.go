// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import "strings"

// Highlight returns source with the codes of theme spliced in at every
// marker Tag finds.
func Highlight(source string, theme Theme) (string, error) {
	markers, err := Tag(source)
	if err != nil {
		return "", err
	}
	return Compose(source, markers, theme), nil
}

// Compose splices theme codes into source at the given sorted markers.
//
// Each axis keeps a nesting depth: a Begin code is only written when its
// axis becomes active and an End code only when the axis is released, so
// strong text nested in strong text does not drop the outer weight.
func Compose(source string, markers []Marker, theme Theme) string {
	var b strings.Builder
	b.Grow(len(source) + len(markers)*6)

	var depth [axisCount]int
	pos := 0
	for _, m := range markers {
		offset := min(max(m.Offset, pos), len(source))
		b.WriteString(source[pos:offset])
		pos = offset

		axis := m.Kind.Axis()
		if m.Kind.IsEnd() {
			if depth[axis] == 0 {
				continue
			}
			depth[axis]--
			if depth[axis] == 0 {
				b.WriteString(theme.code(m.Kind))
			}
			continue
		}
		depth[axis]++
		if depth[axis] == 1 {
			b.WriteString(theme.code(m.Kind))
		}
	}
	b.WriteString(source[pos:])
	return b.String()
}
