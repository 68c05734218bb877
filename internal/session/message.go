// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns conversation sessions and their message history.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/folio-tui/internal/backend"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one finalized message in a session. Messages are immutable
// once created; the Store hands out copies, and citation maps must not be
// mutated by readers.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Citations (assistant messages only)
	Sources       []string                    `json:"sources,omitempty"`
	SourceChunks  map[string]backend.ChunkSet `json:"source_chunks,omitempty"`
	SourceAuthors map[string]string           `json:"source_authors,omitempty"`
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// HasSources reports whether the message cites any sources.
func (m Message) HasSources() bool {
	return len(m.Sources) > 0
}

// =============================================================================
// DRAFT TYPE
// =============================================================================

// Draft is the mutable builder for an in-progress assistant message.
// Content is appended delta by delta while the response streams, citation
// metadata is attached as it arrives, and Finalize seals the result. A
// finalized Draft rejects further mutation.
type Draft struct {
	id        string
	timestamp time.Time

	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	content strings.Builder

	sources       []string
	sourceChunks  map[string]backend.ChunkSet
	sourceAuthors map[string]string

	finalized bool
}

// NewDraft creates an empty assistant-message draft.
func NewDraft() *Draft {
	return &Draft{
		id:        generateMessageID(),
		timestamp: time.Now(),
	}
}

// ID returns the draft's message ID, stable across finalization.
func (d *Draft) ID() string {
	return d.id
}

// AppendContent appends one streamed delta. No-op after finalization.
func (d *Draft) AppendContent(delta string) {
	if d.finalized {
		return
	}
	d.content.WriteString(delta)
}

// Content returns the content accumulated so far.
func (d *Draft) Content() string {
	return d.content.String()
}

// AttachReply attaches the citation metadata of a completed exchange.
// No-op after finalization.
func (d *Draft) AttachReply(reply backend.Reply) {
	if d.finalized {
		return
	}
	d.sources = reply.Sources
	d.sourceChunks = reply.SourceChunks
	d.sourceAuthors = reply.SourceAuthors
}

// Finalized reports whether the draft has been sealed.
func (d *Draft) Finalized() bool {
	return d.finalized
}

// Finalize seals the draft into an immutable Message. Subsequent calls
// return the same value; the draft accepts no further mutation.
func (d *Draft) Finalize() Message {
	d.finalized = true

	sources := d.sources
	if sources == nil {
		sources = []string{}
	}

	return Message{
		ID:            d.id,
		Role:          RoleAssistant,
		Content:       d.content.String(),
		Timestamp:     d.timestamp,
		Sources:       sources,
		SourceChunks:  d.sourceChunks,
		SourceAuthors: d.sourceAuthors,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
