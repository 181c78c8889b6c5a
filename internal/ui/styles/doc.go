// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the color palette and status-line styling for lmc.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Whether any color is emitted at all is decided by the color
profile the cli package installs (NO_COLOR, FORCE_COLOR, TTY detection).

# Status Lines

Status lines carry an ASCII indicator so they stay readable without color:

	[i] informational message
	[!] warning
	[e] error

Use RenderInfo, RenderWarning and RenderError to build them.

# Roles

RoleStyle returns the style used for a speaker name in the /history
listing: Cyan for the user, Purple for the assistant, Amber for the system
prompt.
*/
package styles
