// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream provides delimiter-based decoding of chunked byte streams.
//
// Transports deliver response bodies in arbitrary fragments: a single
// newline-delimited record may span several reads, and one read may carry
// several records. This package reassembles those fragments into whole
// records regardless of where the fragment boundaries fall.
//
// # Key Types
//
//   - Splitter: pure buffering splitter, fed fragments, yields complete lines
//   - LineDecoder: io.Reader adapter yielding one complete line per Next call
//
// # Usage
//
// Decode a streaming HTTP response body line by line:
//
//	dec := stream.NewLineDecoder(resp.Body)
//	for {
//	    line, err := dec.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    handle(line)
//	}
//
// A trailing fragment with no terminating newline is treated as an
// incomplete record and discarded at end of stream, not an error.
package stream
