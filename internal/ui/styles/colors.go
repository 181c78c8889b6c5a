// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lmc/internal/model"
)

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - assistant messages
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - brand color, user messages
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Amber - system prompt, warnings
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// TextMuted - hints, timestamps, very subtle text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// ACCESSIBILITY: High-contrast status colors
// =============================================================================

// High contrast error - distinct from green even for colorblind users
var ErrorHighContrast = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}

// High contrast warning - deuteranopia-friendly
var WarningHighContrast = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}

// High contrast info - distinct from red/green spectrum
var InfoHighContrast = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}

// StatusIndicatorSet contains text indicators for status lines.
type StatusIndicatorSet struct {
	Info    string
	Warning string
	Error   string
}

// StatusIndicators provides shape/text indicators alongside colors.
// ACCESSIBILITY: ASCII-only indicators for maximum compatibility and colorblind users.
var StatusIndicators = StatusIndicatorSet{
	Info:    "[i]",
	Warning: "[!]",
	Error:   "[e]",
}

var (
	infoStyle    = lipgloss.NewStyle().Foreground(InfoHighContrast).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(WarningHighContrast).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(ErrorHighContrast).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(TextMuted)
)

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderInfo renders an informational status line. Only the indicator is
// colored so the message stays copyable.
func RenderInfo(message string) string {
	return infoStyle.Render(StatusIndicators.Info) + " " + message
}

// RenderWarning renders a warning status line.
func RenderWarning(message string) string {
	return warningStyle.Render(StatusIndicators.Warning) + " " + message
}

// RenderError renders an error status line.
func RenderError(message string) string {
	return errorStyle.Render(StatusIndicators.Error) + " " + message
}

// RenderMuted renders secondary text such as hints and timestamps.
func RenderMuted(text string) string {
	return mutedStyle.Render(text)
}

// RoleStyle returns the style for a speaker name.
func RoleStyle(role model.Role) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch role {
	case model.RoleUser:
		return style.Foreground(Cyan)
	case model.RoleAssistant:
		return style.Foreground(Purple)
	case model.RoleSystem:
		return style.Foreground(Amber)
	default:
		return style.Foreground(TextMuted)
	}
}
