// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
//
// This package handles parsing and executing slash commands in the chat
// interface, providing autocomplete and command registration. Handlers
// return tea.Cmd values that perform backend or store work off the UI
// thread and report back through typed messages.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Context: Injected services (config, backend client, session stores)
//   - ParseResult: Parsed command with name and arguments
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /new, /sessions, /switch, /delete: Session management
//   - /folder, /docs, /upload: Document folder management
//   - /sources, /outline, /search, /authors: Retrieval operations
//   - /export, /config, /theme, /status: Utilities
//
// # Usage
//
// Parse and execute a command:
//
//	result := parser.Parse(input)
//	if result.IsCommand && result.Command != nil {
//	    cmd := result.Command.Handler(ctx, result.Args)
//	}
//
// Get completions:
//
//	completions := completer.Complete("/se", 3)
//	// Returns /sessions, /search, ...
package commands
