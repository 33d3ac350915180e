// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the quizchat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The palette is defined in colors.go; Theme in theme.go bundles
the configured lipgloss styles for every screen region (header, message
bubbles, input area, status bar, error boxes, welcome and completion
screens). progress.go carries the spinner configurations and the ASCII
progress bar used to show quiz advancement.

Create a Theme once at startup and pass it down:

	theme := styles.NewTheme()
	m := chat.New(theme, engine)

Theme detects the terminal's color profile via termenv and degrades
gracefully on terminals without true color support.
*/
package styles
