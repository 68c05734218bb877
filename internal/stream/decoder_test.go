// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream provides delimiter-based decoding of chunked byte streams.
package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// fragmentReader delivers a payload in caller-chosen fragment sizes,
// simulating arbitrary transport chunking.
type fragmentReader struct {
	fragments [][]byte
	index     int
}

func newFragmentReader(payload string, sizes []int) *fragmentReader {
	var fragments [][]byte
	rest := []byte(payload)
	for _, size := range sizes {
		if len(rest) == 0 {
			break
		}
		if size > len(rest) {
			size = len(rest)
		}
		fragments = append(fragments, rest[:size])
		rest = rest[size:]
	}
	if len(rest) > 0 {
		fragments = append(fragments, rest)
	}
	return &fragmentReader{fragments: fragments}
}

func (r *fragmentReader) Read(p []byte) (int, error) {
	if r.index >= len(r.fragments) {
		return 0, io.EOF
	}
	n := copy(p, r.fragments[r.index])
	r.index++
	return n, nil
}

// errorReader fails after delivering its payload.
type errorReader struct {
	payload string
	sent    bool
	err     error
}

func (r *errorReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, r.payload), nil
	}
	return 0, r.err
}

func collectLines(t *testing.T, dec *LineDecoder) []string {
	t.Helper()
	var lines []string
	for {
		line, err := dec.Next()
		if err == io.EOF {
			return lines
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		lines = append(lines, line)
	}
}

// =============================================================================
// SPLITTER TESTS
// =============================================================================

func TestSplitter_CompleteLine(t *testing.T) {
	s := NewSplitter()
	lines := s.Write([]byte("hello\n"))
	if len(lines) != 1 || lines[0] != "hello" {
		t.Errorf("lines = %v, want [hello]", lines)
	}
	if s.Rest() != "" {
		t.Errorf("Rest = %q, want empty", s.Rest())
	}
}

func TestSplitter_PartialRetained(t *testing.T) {
	s := NewSplitter()
	if lines := s.Write([]byte("hel")); lines != nil {
		t.Errorf("lines = %v, want nil", lines)
	}
	if s.Rest() != "hel" {
		t.Errorf("Rest = %q, want %q", s.Rest(), "hel")
	}

	lines := s.Write([]byte("lo\nwor"))
	if len(lines) != 1 || lines[0] != "hello" {
		t.Errorf("lines = %v, want [hello]", lines)
	}
	if s.Rest() != "wor" {
		t.Errorf("Rest = %q, want %q", s.Rest(), "wor")
	}
}

func TestSplitter_MultipleLinesOneFragment(t *testing.T) {
	s := NewSplitter()
	lines := s.Write([]byte("a\nb\nc\n"))
	if len(lines) != 3 || lines[0] != "a" || lines[1] != "b" || lines[2] != "c" {
		t.Errorf("lines = %v, want [a b c]", lines)
	}
}

func TestSplitter_CRLF(t *testing.T) {
	s := NewSplitter()
	lines := s.Write([]byte("one\r\ntwo\r\n"))
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v, want [one two]", lines)
	}
}

func TestSplitter_EmptyFragment(t *testing.T) {
	s := NewSplitter()
	if lines := s.Write(nil); lines != nil {
		t.Errorf("lines = %v, want nil", lines)
	}
}

// =============================================================================
// LINE DECODER TESTS
// =============================================================================

func TestLineDecoder_AllLinesInOrder(t *testing.T) {
	payload := "first\nsecond\nthird\n"
	dec := NewLineDecoder(strings.NewReader(payload))

	lines := collectLines(t, dec)
	want := []string{"first", "second", "third"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

// Every fragmentation of the same payload must yield the same lines,
// including boundaries that split a line in half.
func TestLineDecoder_ArbitraryFragmentation(t *testing.T) {
	payload := `{"type":"metadata","sources":["a.pdf"]}` + "\n" +
		`{"type":"chunk","content":"hello"}` + "\n" +
		`{"type":"complete"}` + "\n"
	want := strings.Split(strings.TrimSuffix(payload, "\n"), "\n")

	fragmentations := [][]int{
		{1},              // byte at a time
		{3},              // small fixed chunks
		{7},
		{len(payload)},   // all at once
		{5, 1, 50, 2},    // mixed sizes, repeating last
		{40, 40, 40},     // splits mid-line
	}

	for _, sizes := range fragmentations {
		// Expand repeating pattern to cover the whole payload.
		var expanded []int
		total := 0
		for total < len(payload) {
			for _, s := range sizes {
				expanded = append(expanded, s)
				total += s
			}
		}

		dec := NewLineDecoder(newFragmentReader(payload, expanded))
		lines := collectLines(t, dec)

		if len(lines) != len(want) {
			t.Fatalf("sizes %v: got %d lines, want %d", sizes, len(lines), len(want))
		}
		for i := range want {
			if lines[i] != want[i] {
				t.Errorf("sizes %v: line %d = %q, want %q", sizes, i, lines[i], want[i])
			}
		}
	}
}

func TestLineDecoder_TrailingPartialDiscarded(t *testing.T) {
	dec := NewLineDecoder(strings.NewReader("complete\nincomplete"))

	lines := collectLines(t, dec)
	if len(lines) != 1 || lines[0] != "complete" {
		t.Errorf("lines = %v, want [complete]", lines)
	}
}

func TestLineDecoder_EmptyStream(t *testing.T) {
	dec := NewLineDecoder(strings.NewReader(""))
	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestLineDecoder_EmptyLinesPreserved(t *testing.T) {
	dec := NewLineDecoder(strings.NewReader("a\n\nb\n"))
	lines := collectLines(t, dec)
	if len(lines) != 3 || lines[1] != "" {
		t.Errorf("lines = %v, want [a <empty> b]", lines)
	}
}

func TestLineDecoder_TransportError(t *testing.T) {
	wantErr := errors.New("connection reset")
	dec := NewLineDecoder(&errorReader{payload: "ok\n", err: wantErr})

	line, err := dec.Next()
	if err != nil || line != "ok" {
		t.Fatalf("first Next = (%q, %v), want (ok, nil)", line, err)
	}

	if _, err := dec.Next(); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestLineDecoder_EOFIsSticky(t *testing.T) {
	dec := NewLineDecoder(strings.NewReader("a\n"))
	collectLines(t, dec)

	for i := 0; i < 3; i++ {
		if _, err := dec.Next(); err != io.EOF {
			t.Fatalf("Next after EOF = %v, want io.EOF", err)
		}
	}
}
