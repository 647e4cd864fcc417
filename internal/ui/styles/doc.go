// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the kvterm console view.
//
// All colors use Lip Gloss AdaptiveColor so they follow the terminal's
// light or dark background. NewTheme detects the color profile with
// termenv; the "dark" and "light" theme settings skip background detection.
//
// Transcript entries map to styles as follows:
//
//	Command  bold cyan, prefixed with the prompt
//	Result   primary text, verbatim
//	Error    bold rose
package styles
