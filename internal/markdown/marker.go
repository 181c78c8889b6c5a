// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"fmt"
	"sort"
)

// StyleKind identifies the boundary of a styled construct.
type StyleKind int

const (
	HeadingBegin StyleKind = iota
	HeadingEnd
	CodeBegin
	CodeEnd
	StrongBegin
	StrongEnd
)

// String returns the kind's name.
func (k StyleKind) String() string {
	switch k {
	case HeadingBegin:
		return "HeadingBegin"
	case HeadingEnd:
		return "HeadingEnd"
	case CodeBegin:
		return "CodeBegin"
	case CodeEnd:
		return "CodeEnd"
	case StrongBegin:
		return "StrongBegin"
	case StrongEnd:
		return "StrongEnd"
	default:
		return fmt.Sprintf("StyleKind(%d)", int(k))
	}
}

// IsEnd reports whether the kind closes a construct.
func (k StyleKind) IsEnd() bool {
	return k == HeadingEnd || k == CodeEnd || k == StrongEnd
}

// Axis is the independent text attribute a construct changes. Ending one
// axis never resets another.
type Axis int

const (
	AxisForeground Axis = iota
	AxisBackground
	AxisWeight

	axisCount
)

// Axis returns the attribute the kind's construct changes.
func (k StyleKind) Axis() Axis {
	switch k {
	case HeadingBegin, HeadingEnd:
		return AxisForeground
	case CodeBegin, CodeEnd:
		return AxisBackground
	default:
		return AxisWeight
	}
}

// Marker is a style boundary at a byte offset of the tagged source.
type Marker struct {
	Kind   StyleKind
	Offset int
}

func (m Marker) String() string {
	return fmt.Sprintf("%s@%d", m.Kind, m.Offset)
}

// sortMarkers orders markers by offset. At equal offsets End markers come
// before Begin markers, otherwise the original order is kept.
func sortMarkers(markers []Marker) {
	sort.SliceStable(markers, func(i, j int) bool {
		a, b := markers[i], markers[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return a.Kind.IsEnd() && !b.Kind.IsEnd()
	})
}
