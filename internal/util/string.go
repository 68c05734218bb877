// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the folio application.
package util

// UNICODE: all truncation here counts runes, never bytes. Session titles
// and chunk excerpts routinely contain non-ASCII text; cutting on a byte
// index would corrupt a multi-byte sequence mid-character.

// TruncateRunes caps s at maxRunes runes, replacing the tail with "..."
// when something was cut. The ellipsis counts against the budget, so the
// result never exceeds maxRunes runes.
func TruncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	switch {
	case maxRunes <= 0:
		return ""
	case len(runes) <= maxRunes:
		return s
	case maxRunes <= 3:
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateRunesNoEllipsis caps s at maxRunes runes with no marker. Callers
// that append their own marker outside the budget (session titles) use this.
func TruncateRunesNoEllipsis(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if runes := []rune(s); len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return s
}

// RuneLen counts the runes in s. len() counts bytes.
func RuneLen(s string) int {
	return len([]rune(s))
}
