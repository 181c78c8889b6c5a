// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Color profile setup and the markdown theme for responses.
//
// Color handling:
// - Colors are automatically disabled for non-TTY output (piped, redirected)
// - Respects NO_COLOR environment variable (https://no-color.org/)
// - Supports FORCE_COLOR environment variable to override detection

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lmc/internal/markdown"
)

// init configures lipgloss color profile based on terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// responseTheme returns the SGR theme for rendered responses: the default
// theme when colors are enabled, no codes at all otherwise.
func responseTheme(colors bool) markdown.Theme {
	if colors {
		return markdown.DefaultTheme()
	}
	return markdown.PlainTheme()
}
