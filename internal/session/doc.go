// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns conversation sessions and their message history.
//
// A session is one independent conversation thread bound to a backend
// document folder. The Store is the single writer for all session state:
// the session table, the active-session pointer, and every message
// sequence. Other components read snapshots and request mutations; they
// never hold a writable reference to session data.
//
// # Key Types
//
//   - Store: session table plus nullable active-session pointer
//   - Session: one conversation thread (id, folder, title, messages)
//   - Message: an immutable, finalized message
//   - Draft: the mutable builder for an in-progress assistant message
//   - SourceView: resolved chunk set and author for one citation label
//
// # Message Lifecycle
//
// Assistant messages are two-phase: a Draft accumulates streamed content
// and citation metadata in place, then Finalize seals it into an immutable
// Message exactly once. The Store only ever holds finalized Messages; the
// in-flight Draft lives with the exchange driving it.
package session
