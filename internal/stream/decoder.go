// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream provides delimiter-based decoding of chunked byte streams.
package stream

import (
	"io"
	"strings"
)

// readBufferSize is the size of the transport read buffer.
const readBufferSize = 4096

// =============================================================================
// SPLITTER
// =============================================================================

// Splitter reassembles newline-delimited records from arbitrary byte
// fragments. Each fragment is appended to an internal buffer, the buffer is
// split on newlines, all complete lines are returned, and the final
// (possibly incomplete) piece is retained for the next fragment.
//
// The Splitter is transport-agnostic: it never reads anything itself, which
// makes it independently testable against any fragmentation of the input.
type Splitter struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	pending strings.Builder
}

// NewSplitter creates an empty splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Write feeds one fragment into the splitter and returns all lines completed
// by it, in order. Line terminators are stripped; a trailing "\r" is removed
// so CRLF streams decode the same as LF streams.
func (s *Splitter) Write(fragment []byte) []string {
	if len(fragment) == 0 {
		return nil
	}

	s.pending.Write(fragment)

	buffered := s.pending.String()
	if !strings.Contains(buffered, "\n") {
		return nil
	}

	parts := strings.Split(buffered, "\n")

	// The final element is the new pending partial (empty if the fragment
	// ended exactly on a newline).
	s.pending.Reset()
	s.pending.WriteString(parts[len(parts)-1])

	lines := parts[:len(parts)-1]
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Rest returns the retained partial line, if any.
func (s *Splitter) Rest() string {
	return s.pending.String()
}

// Reset discards any buffered partial line.
func (s *Splitter) Reset() {
	s.pending.Reset()
}

// =============================================================================
// LINE DECODER
// =============================================================================

// LineDecoder yields newline-delimited records from an io.Reader. It is a
// lazy, finite, non-restartable sequence: each Next call returns the next
// complete line, reading from the transport only when no decoded line is
// queued. A partial trailing record at end of stream is discarded.
type LineDecoder struct {
	r        io.Reader
	splitter *Splitter
	queue    []string
	buf      []byte
	eof      bool
}

// NewLineDecoder creates a decoder reading from r.
func NewLineDecoder(r io.Reader) *LineDecoder {
	return &LineDecoder{
		r:        r,
		splitter: NewSplitter(),
		buf:      make([]byte, readBufferSize),
	}
}

// Next returns the next complete line. It returns io.EOF once the underlying
// stream is exhausted; any other error comes straight from the transport.
// Each call performs at most the reads needed to complete one line, so the
// caller is never blocked past the transport's own blocking behavior.
func (d *LineDecoder) Next() (string, error) {
	for {
		if len(d.queue) > 0 {
			line := d.queue[0]
			d.queue = d.queue[1:]
			return line, nil
		}

		if d.eof {
			return "", io.EOF
		}

		n, err := d.r.Read(d.buf)
		if n > 0 {
			d.queue = append(d.queue, d.splitter.Write(d.buf[:n])...)
		}
		if err != nil {
			if err == io.EOF {
				// Incomplete trailing record is noise, not an error.
				d.eof = true
				d.splitter.Reset()
				continue
			}
			return "", err
		}
	}
}
