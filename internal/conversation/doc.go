// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation orchestrates one chat exchange end to end: it
// validates the outgoing message, resolves or creates the target session,
// sends the request, consumes the streamed response, and commits or rolls
// back the session's message sequence as a unit.
//
// # Key Types
//
//   - Controller: Drives exchanges against a backend and a session store
//   - State: Phase of an exchange (Idle through Committed/RolledBack)
//   - Result: Outcome of one exchange
//
// # Exchange Lifecycle
//
// Every Send moves through the same phases:
//
//	Idle -> Validating -> SessionReady -> Sending -> Streaming
//	     -> Finalizing -> Committed | RolledBack
//
// The session's message sequence is only ever replaced atomically: either
// both the user message and the finalized assistant message land, or the
// sequence is restored to its exact pre-exchange contents. Partial
// transcripts are never committed.
//
// # Concurrency
//
// A session admits one in-flight exchange at a time. A second Send against
// a busy session fails fast with ErrBusy. Different sessions may stream
// concurrently.
//
// # Usage
//
//	ctrl := conversation.NewController(client, store, conversation.Config{})
//	res, err := ctrl.Send(ctx, "docs", "What is X?", func(delta string) {
//	    // live render
//	})
package conversation
