// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for folio.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.folio/config.toml
//   - ~/.folio/config.json
//   - Built-in defaults
//
// # Key Types
//
//   - Config: Complete folio configuration
//   - BackendConfig: Backend connection settings
//   - WatchConfig: Watch-folder ingestion settings
//
// # Environment Overrides
//
// A handful of FOLIO_* environment variables override file values; see
// ApplyEnvOverrides for the list.
package config
