// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns conversation sessions and their message history.
package session

import (
	"github.com/jeranaias/folio-tui/internal/backend"
)

// =============================================================================
// SOURCE RESOLUTION
// =============================================================================

// SourceView is the resolved inspection data for one citation label of a
// finalized assistant message.
type SourceView struct {
	// Label is the citation label the user selected.
	Label string

	// Chunks backs the citation. Available is false when the message
	// carries no chunk data for this label.
	Chunks    []backend.Chunk
	Available bool

	// Author is the best-known author. AuthorKnown is false when neither
	// author source had an entry.
	Author      string
	AuthorKnown bool
}

// ResolveSource looks up the chunk set and author for one citation label.
//
// Author precedence: the per-exchange source->author map wins; the author
// embedded in the per-source chunk set is the fallback. Resolution is a
// pure lookup; missing data yields the Available/AuthorKnown sentinels,
// never an error.
func ResolveSource(msg Message, label string) SourceView {
	view := SourceView{Label: label}

	if set, ok := msg.SourceChunks[label]; ok {
		view.Chunks = set.Chunks
		view.Available = true
		if set.Author != "" {
			view.Author = set.Author
			view.AuthorKnown = true
		}
	}

	if author, ok := msg.SourceAuthors[label]; ok && author != "" {
		view.Author = author
		view.AuthorKnown = true
	}

	return view
}
