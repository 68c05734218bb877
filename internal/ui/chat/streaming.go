// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the streaming pipeline: the conversation controller
// runs in a goroutine, deltas land in a batching buffer, and a 30fps tick
// flushes them into the viewport. Batching keeps rendering smooth without
// redrawing on every token.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/conversation"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches deltas for efficient rendering. Deltas accumulate
// until either the batch size threshold or the frame interval is reached.
//
// Thread-safety: the controller goroutine writes while the Bubble Tea loop
// flushes, so all operations take the mutex.
type StreamingBuffer struct {
	mu        sync.Mutex
	buffer    strings.Builder
	count     int
	lastFlush time.Time

	batchSize int
	interval  time.Duration
}

// NewStreamingBuffer creates a streaming buffer tuned for ~30fps rendering.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{
		batchSize: 15,
		interval:  33 * time.Millisecond,
		lastFlush: time.Now(),
	}
}

// Write adds a delta to the buffer. Called from the controller goroutine.
func (sb *StreamingBuffer) Write(delta string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(delta)
	sb.count++
}

// Flush returns accumulated content when a batch or frame threshold has been
// reached. Called from the Bubble Tea loop.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.count < sb.batchSize && time.Since(sb.lastFlush) < sb.interval {
		return "", false
	}

	return sb.takeLocked(), true
}

// ForceFlush drains everything regardless of thresholds. Used when the
// exchange finishes so no trailing tokens are lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.takeLocked(), true
}

// Reset clears the buffer without flushing.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.count = 0
	sb.lastFlush = time.Now()
}

func (sb *StreamingBuffer) takeLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.count = 0
	sb.lastFlush = time.Now()
	return content
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTickMsg drives buffer flushes while an exchange is streaming.
type StreamTickMsg struct {
	Time time.Time
}

// SendFinishedMsg carries the terminal outcome of an exchange.
type SendFinishedMsg struct {
	Result conversation.Result
	Err    error
}

// =============================================================================
// STREAMING COMMANDS
// =============================================================================

// streamTickCmd schedules the next flush tick at ~30fps.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

// startSendCmd runs the exchange in a goroutine. Deltas stream into buf;
// the terminal result arrives as a SendFinishedMsg.
func startSendCmd(ctrl *conversation.Controller, folder, text string, buf *StreamingBuffer) tea.Cmd {
	return func() tea.Msg {
		result, err := ctrl.Send(context.Background(), folder, text, func(delta string) {
			buf.Write(delta)
		})
		return SendFinishedMsg{Result: result, Err: err}
	}
}
