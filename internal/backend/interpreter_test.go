// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the folio document backend.
package backend

import (
	"errors"
	"testing"
)

// =============================================================================
// PARSE EVENT TESTS
// =============================================================================

func TestParseEvent_Metadata(t *testing.T) {
	line := `{"type":"metadata","sources":["a.pdf","b.pdf"],"source_authors":{"a.pdf":"Doe"}}`

	event, err := ParseEvent(line)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if event == nil {
		t.Fatal("event is nil")
	}
	if event.Type != EventMetadata {
		t.Errorf("Type = %q, want metadata", event.Type)
	}
	if len(event.Sources) != 2 || event.Sources[0] != "a.pdf" {
		t.Errorf("Sources = %v", event.Sources)
	}
	if event.SourceAuthors["a.pdf"] != "Doe" {
		t.Errorf("SourceAuthors = %v", event.SourceAuthors)
	}
}

func TestParseEvent_Chunk(t *testing.T) {
	event, err := ParseEvent(`{"type":"chunk","content":"hello "}`)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if event.Type != EventChunk || event.Content != "hello " {
		t.Errorf("event = %+v", event)
	}
}

func TestParseEvent_Complete(t *testing.T) {
	line := `{"type":"complete","sources":["a.pdf"],"source_chunks":{"a.pdf":{"author":"Doe","chunks":[{"text":"excerpt","distance":0.42}]}}}`

	event, err := ParseEvent(line)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if event.Type != EventComplete {
		t.Errorf("Type = %q, want complete", event.Type)
	}
	set, ok := event.SourceChunks["a.pdf"]
	if !ok {
		t.Fatal("missing chunk set for a.pdf")
	}
	if set.Author != "Doe" || len(set.Chunks) != 1 || set.Chunks[0].Text != "excerpt" {
		t.Errorf("chunk set = %+v", set)
	}
	if set.Chunks[0].Distance == nil || *set.Chunks[0].Distance != 0.42 {
		t.Errorf("Distance = %v, want 0.42", set.Chunks[0].Distance)
	}
}

func TestParseEvent_ErrorRecord(t *testing.T) {
	event, err := ParseEvent(`{"type":"error","error":"model exploded"}`)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if event.Type != EventError || event.Error != "model exploded" {
		t.Errorf("event = %+v", event)
	}
}

func TestParseEvent_BareErrorNormalized(t *testing.T) {
	// The backend emits {"error": ...} with no discriminant before a
	// stream ever starts (missing folder, no relevant chunks).
	event, err := ParseEvent(`{"error":"folder_name is required","response":null,"sources":[]}`)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if event == nil || event.Type != EventError {
		t.Fatalf("event = %+v, want normalized error", event)
	}
	if event.Error != "folder_name is required" {
		t.Errorf("Error = %q", event.Error)
	}
}

func TestParseEvent_NoiseSkipped(t *testing.T) {
	noise := []string{
		"",
		"   ",
		"not json at all",
		"{truncated",
		`{"type":"heartbeat"}`,
		`{"unrelated":true}`,
	}

	for _, line := range noise {
		event, err := ParseEvent(line)
		if err != nil {
			t.Errorf("ParseEvent(%q) err = %v, want nil", line, err)
		}
		if event != nil {
			t.Errorf("ParseEvent(%q) = %+v, want nil", line, event)
		}
	}
}

func TestParseEvent_StructuralMismatchIsFatal(t *testing.T) {
	// Well-formed JSON with a wrong field type is a protocol violation,
	// not transport noise.
	_, err := ParseEvent(`{"type":"chunk","content":5}`)
	if err == nil {
		t.Fatal("expected protocol error")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeProtocol {
		t.Errorf("err = %v, want protocol ClientError", err)
	}
}

// =============================================================================
// INTERPRETER TESTS
// =============================================================================

func TestInterpreter_AccumulatesContent(t *testing.T) {
	in := NewInterpreter()

	var deltas []string
	in.OnDelta = func(delta string) { deltas = append(deltas, delta) }

	feed := []StreamEvent{
		{Type: EventChunk, Content: "X is "},
		{Type: EventChunk, Content: "a thing."},
	}
	for _, event := range feed {
		if err := in.Feed(event); err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
	}

	if got := in.Content(); got != "X is a thing." {
		t.Errorf("Content = %q", got)
	}
	if len(deltas) != 2 || deltas[0] != "X is " || deltas[1] != "a thing." {
		t.Errorf("deltas = %v", deltas)
	}
}

func TestInterpreter_MetadataDoesNotTouchContent(t *testing.T) {
	in := NewInterpreter()
	in.Feed(StreamEvent{Type: EventChunk, Content: "before"})
	in.Feed(StreamEvent{Type: EventMetadata, Sources: []string{"a.pdf"}})

	if got := in.Content(); got != "before" {
		t.Errorf("Content = %q, want unchanged", got)
	}
	if reply := in.Reply(); len(reply.Sources) != 1 || reply.Sources[0] != "a.pdf" {
		t.Errorf("Sources = %v", in.Reply().Sources)
	}
}

func TestInterpreter_CompleteSupersedesMetadataSources(t *testing.T) {
	in := NewInterpreter()
	in.Feed(StreamEvent{Type: EventMetadata, Sources: []string{"a.pdf", "b.pdf", "c.pdf"}})
	in.Feed(StreamEvent{Type: EventComplete, Sources: []string{"a.pdf"}, SourceChunks: map[string]ChunkSet{
		"a.pdf": {Chunks: []Chunk{{Text: "cited"}}},
	}})

	reply := in.Reply()
	if len(reply.Sources) != 1 || reply.Sources[0] != "a.pdf" {
		t.Errorf("Sources = %v, want cited list only", reply.Sources)
	}
	if !in.Completed() {
		t.Error("Completed should be true")
	}
}

func TestInterpreter_CompleteWithoutMetadata(t *testing.T) {
	in := NewInterpreter()
	in.Feed(StreamEvent{Type: EventChunk, Content: "answer"})
	if err := in.Feed(StreamEvent{Type: EventComplete}); err != nil {
		t.Fatalf("Feed(complete) failed: %v", err)
	}

	reply := in.Reply()
	if reply.Sources == nil || len(reply.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil list", reply.Sources)
	}
	if reply.Content != "answer" {
		t.Errorf("Content = %q", reply.Content)
	}
}

func TestInterpreter_ErrorEventIsFatal(t *testing.T) {
	in := NewInterpreter()
	err := in.Feed(StreamEvent{Type: EventError, Error: "no relevant information"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRemote(err) {
		t.Errorf("err = %v, want remote ClientError", err)
	}
	if err.Error() != "no relevant information" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestChatResult_AsReply(t *testing.T) {
	result := &ChatResult{
		Response:      "X is a thing.",
		Sources:       []string{"a.pdf"},
		SourceAuthors: map[string]string{"a.pdf": "Doe"},
	}

	reply := result.AsReply()
	if reply.Content != "X is a thing." || len(reply.Sources) != 1 {
		t.Errorf("reply = %+v", reply)
	}
	if reply.SourceAuthors["a.pdf"] != "Doe" {
		t.Errorf("SourceAuthors = %v", reply.SourceAuthors)
	}
}
