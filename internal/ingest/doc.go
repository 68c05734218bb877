// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest uploads local documents to the folio backend, either on
// demand or automatically from a watched directory.
//
// # Key Types
//
//   - Ingester: Uploads a single file based on its extension
//   - FileWatcher: Interface for watch implementations
//   - FsnotifyWatcher: Event-driven watcher with debounce
//   - PollingWatcher: Periodic-scan fallback for filesystems without
//     event support
//
// # Supported Files
//
// Plain text and Markdown files go through the backend's text endpoint;
// PDFs go through OCR. Other extensions are ignored.
//
// # Usage
//
//	ing := ingest.NewIngester(client, "docs")
//	watcher, err := ingest.StartWatcher(ing, dir, 750*time.Millisecond, onResult)
//	defer watcher.Close()
package ingest
