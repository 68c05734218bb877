// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view component for the folio TUI.

The chat package implements a complete terminal-based chat interface using
the Bubble Tea framework. It connects the conversation controller, session
stores and slash command system into one interactive view.

# Architecture

	Model (model.go)
	  |- Update (update.go)    key handling, command outcomes, stream ticks
	  |- View (view.go)        header, transcript, overlays, input, status
	  |- messages.go           transcript rendering, markdown, wrapping
	  |- commands.go           command outcome -> state transitions
	  |- streaming.go          delta batching and send pipeline

# Streaming

Sending a question starts the conversation controller in a goroutine.
Deltas stream into a StreamingBuffer; a 30fps tick flushes batches into
the viewport so rendering stays smooth regardless of token rate. The
terminal SendFinishedMsg either commits the reply (and persists the
session) or reports the rollback.

# Overlays

Full-screen panels cover the transcript for help, the session list,
source inspection and errors. Esc closes the active overlay.

# Usage

	m := chat.New(cfg, client, controller, store, disk, ingester)
	p := tea.NewProgram(app{m}, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
