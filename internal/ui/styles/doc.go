// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the folio TUI.

This package defines the complete color palette and theme used throughout
the application. All colors use Lip Gloss AdaptiveColor for automatic
light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Indigo - Primary accent for assistant messages and selections
  - Teal - Brand color for commands and citation labels
  - Emerald - Success states and the backend-connected indicator
  - Amber - Warnings and the backend-unreachable indicator
  - Rose - Errors and rollback notices

## Semantic Colors

Message bubbles and citation elements use semantic color tokens:

	UserBubbleBg      - Background for user messages
	UserBubbleFg      - Text color for user messages
	AssistantBubbleBg - Background for assistant messages
	AssistantBubbleFg - Text color for assistant messages
	SourceLabel       - Citation labels under assistant replies
	AuthorColor       - Resolved author line in the source overlay

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation:

	theme := styles.NewTheme()
	if theme.IsDark {
		// Dark terminal detected
	}

NewThemeForMode bypasses detection when ui.theme is set explicitly.

# Status Indicators

ASCII indicators paired with high-contrast colors:

	StatusIndicators.Success   - [OK]
	StatusIndicators.Error     - [X]
	StatusIndicators.Warning   - [!]
	StatusIndicators.Info      - [i]

# Usage Example

	import "github.com/jeranaias/folio-tui/internal/ui/styles"

	// Use adaptive colors
	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	// Use theme for runtime detection
	theme := styles.NewTheme()
	line := theme.SourceLine.Render("Sources: agreement.pdf")
*/
package styles
