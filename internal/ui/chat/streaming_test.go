// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestStreamingBuffer_BatchThreshold(t *testing.T) {
	sb := NewStreamingBuffer()

	// A few tokens right after creation: below batch size, within the
	// frame interval, so nothing flushes yet.
	for i := 0; i < 5; i++ {
		sb.Write("x")
	}
	if _, ok := sb.Flush(); ok {
		t.Error("flushed below batch size within the frame interval")
	}

	// Crossing the batch size flushes regardless of time.
	for i := 0; i < 10; i++ {
		sb.Write("y")
	}
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("expected flush at batch size")
	}
	if content != "xxxxx"+strings.Repeat("y", 10) {
		t.Errorf("content = %q", content)
	}
}

func TestStreamingBuffer_TimeThreshold(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("hello")

	time.Sleep(40 * time.Millisecond)

	content, ok := sb.Flush()
	if !ok {
		t.Fatal("expected flush after the frame interval")
	}
	if content != "hello" {
		t.Errorf("content = %q", content)
	}
}

func TestStreamingBuffer_ForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	if _, ok := sb.ForceFlush(); ok {
		t.Error("empty buffer should not force-flush")
	}

	sb.Write("tail")
	content, ok := sb.ForceFlush()
	if !ok || content != "tail" {
		t.Errorf("got %q, %v", content, ok)
	}
}

func TestStreamingBuffer_Reset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("discard me")
	sb.Reset()

	if content, ok := sb.ForceFlush(); ok {
		t.Errorf("reset buffer still held %q", content)
	}
}

func TestStreamingBuffer_ConcurrentWrites(t *testing.T) {
	sb := NewStreamingBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sb.Write("a")
			}
		}()
	}

	flushed := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if content, ok := sb.Flush(); ok {
				flushed += len(content)
			}
		}
	}()

	wg.Wait()
	<-done

	// Everything written must come out across flushes plus the final drain.
	if remainder, ok := sb.ForceFlush(); ok {
		flushed += len(remainder)
	}
	if flushed != 8*100 {
		t.Errorf("flushed %d bytes, want %d", flushed, 8*100)
	}
}
