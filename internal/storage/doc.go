// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat sessions to disk as JSON files.
//
// This package handles saving and loading sessions, with support for
// search, listing, and bounded retention.
//
// # Key Types
//
//   - SessionStore: Main storage interface for sessions
//   - SessionMeta: Lightweight metadata for listing
//
// # Usage
//
// Create a store and save a session:
//
//	store, err := storage.NewSessionStore()
//	err = store.Save(sess)
//
// List and load sessions:
//
//	metas, err := store.List()
//	sess, err := store.Load(metas[0].ID)
//
// Restore everything at startup:
//
//	sessions, err := store.LoadAll()
//
// # Storage Location
//
// Sessions are stored in ~/.folio/sessions/ as JSON files, one per session.
package storage
