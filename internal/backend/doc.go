// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the folio document backend.
//
// The backend is a local RAG service: documents are ingested into named
// folders, and chat questions are answered from retrieved chunks with
// source citations. This package implements the client for every endpoint
// the service exposes, including both response shapes of POST /chat: a
// newline-delimited JSON event stream and a single JSON object.
//
// # Key Types
//
//   - Client: HTTP client for backend communication
//   - StreamEvent: one decoded record of the chat event stream
//   - Interpreter: folds stream events into an in-progress reply
//   - Reply: the accumulated result of one chat exchange
//   - Chunk / ChunkSet: retrieved source excerpts with metadata
//
// # Usage
//
// Stream a chat response:
//
//	client := backend.NewClient()
//	interp := backend.NewInterpreter()
//	interp.OnDelta = func(delta string) { render(delta) }
//	err := client.ChatStream(ctx, req, interp.Feed)
//
// Non-streaming mode:
//
//	reply, err := client.Chat(ctx, req)
//
// # Protocol
//
// The chat stream carries four record kinds, discriminated by "type":
// "metadata" (cited source list and authors, may arrive at any point
// before completion), "chunk" (a content delta), "complete" (final source
// list and chunk sets, always last), and "error" (fatal). Records that do
// not parse as JSON are skipped as transport noise.
package backend
