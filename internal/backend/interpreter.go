// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the folio document backend.
package backend

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// EVENT PARSING
// =============================================================================

// ParseEvent classifies one decoded stream record.
//
// Returns (nil, nil) for noise: blank lines, records that are not JSON at
// all, and records with an unrecognized discriminant. Structural mismatches
// in an otherwise well-formed JSON record (a field of the wrong type) are
// not noise and propagate as a protocol error. Records carrying a bare
// "error" field with no discriminant are normalized to EventError; the
// backend emits those before a stream ever starts.
func ParseEvent(line string) (*StreamEvent, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	var event StreamEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		if _, ok := err.(*json.SyntaxError); ok {
			// Skip malformed lines
			return nil, nil
		}
		return nil, &ClientError{Type: ErrTypeProtocol, Message: "malformed stream record", Cause: err}
	}

	switch event.Type {
	case EventMetadata, EventChunk, EventComplete, EventError:
		return &event, nil
	case "":
		if event.Error != "" {
			event.Type = EventError
			return &event, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

// =============================================================================
// REPLY
// =============================================================================

// Reply is the accumulated result of one chat exchange: the full answer
// text plus everything needed to inspect its cited sources.
type Reply struct {
	Content       string
	Sources       []string
	SourceAuthors map[string]string
	SourceChunks  map[string]ChunkSet
}

// AsReply converts a single-object chat response into a Reply.
func (r *ChatResult) AsReply() Reply {
	return Reply{
		Content:       r.Response,
		Sources:       r.Sources,
		SourceAuthors: r.SourceAuthors,
		SourceChunks:  r.SourceChunks,
	}
}

// =============================================================================
// INTERPRETER
// =============================================================================

// Interpreter folds chat stream events into an in-progress reply.
//
// Event order within one exchange: "metadata" may arrive before or between
// "chunk" events, "complete" is always last. A stream that completes without
// a prior metadata event yields an empty source list, not an error.
type Interpreter struct {
	// OnDelta, if set, is called for each content delta as it arrives.
	OnDelta func(delta string)

	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content       strings.Builder
	sources       []string
	sourceAuthors map[string]string
	sourceChunks  map[string]ChunkSet
	completed     bool
}

// NewInterpreter creates an empty interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Feed applies one event. Satisfies EventCallback, so an Interpreter can be
// passed straight to Client.ChatStream. An error event aborts the exchange
// with the embedded message.
func (in *Interpreter) Feed(event StreamEvent) error {
	switch event.Type {
	case EventMetadata:
		// Content untouched; only citation metadata.
		if event.Sources != nil {
			in.sources = event.Sources
		}
		if event.SourceAuthors != nil {
			in.sourceAuthors = event.SourceAuthors
		}

	case EventChunk:
		in.content.WriteString(event.Content)
		if in.OnDelta != nil && event.Content != "" {
			in.OnDelta(event.Content)
		}

	case EventComplete:
		// The complete event's cited-source list supersedes the metadata
		// event's retrieved-source list when present.
		if event.Sources != nil {
			in.sources = event.Sources
		}
		if event.SourceChunks != nil {
			in.sourceChunks = event.SourceChunks
		}
		in.completed = true

	case EventError:
		return remoteError(event.Error)
	}

	return nil
}

// Completed reports whether a complete event has been seen.
func (in *Interpreter) Completed() bool {
	return in.completed
}

// Content returns the content accumulated so far.
func (in *Interpreter) Content() string {
	return in.content.String()
}

// Reply returns the accumulated reply. Sources default to an empty list
// when no metadata or complete event supplied any.
func (in *Interpreter) Reply() Reply {
	sources := in.sources
	if sources == nil {
		sources = []string{}
	}
	return Reply{
		Content:       in.content.String(),
		Sources:       sources,
		SourceAuthors: in.sourceAuthors,
		SourceChunks:  in.sourceChunks,
	}
}
