// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/folio-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete folio configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// DefaultFolder is the document folder new sessions start in.
	DefaultFolder string `toml:"default_folder" json:"default_folder"`

	// Backend connection configuration
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Watch-folder ingestion configuration
	Watch WatchConfig `toml:"watch" json:"watch"`

	// Session storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig contains backend connection configuration.
type BackendConfig struct {
	// BaseURL is the URL of the folio backend
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the timeout for non-streaming requests in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// ResponseMode selects the chat response transport: "stream" or "json"
	// "stream" (default): incremental line-delimited response
	// "json": whole reply as a single JSON object
	ResponseMode string `toml:"response_mode" json:"response_mode"`
}

// WatchConfig contains watch-folder ingestion configuration.
type WatchConfig struct {
	// Enabled controls whether the watcher runs at startup
	Enabled bool `toml:"enabled" json:"enabled"`
	// Dir is the local directory to watch for new documents
	Dir string `toml:"dir" json:"dir"`
	// FolderName is the backend folder uploads land in
	FolderName string `toml:"folder_name" json:"folder_name"`
	// DebounceMs is how long a file must be quiet before upload
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms"`
	// DefaultAuthor is attached to uploads when known (optional)
	DefaultAuthor string `toml:"default_author" json:"default_author"`
}

// StorageConfig contains session persistence configuration.
type StorageConfig struct {
	// MaxSessions limits stored sessions (0 = unlimited)
	MaxSessions int `toml:"max_sessions" json:"max_sessions"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// RenderMarkdown renders assistant replies as styled Markdown
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowSources displays citation labels under assistant replies
	ShowSources bool `toml:"show_sources" json:"show_sources"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:       "1.0.0",
		DefaultFolder: "default",

		Backend: BackendConfig{
			// Explicit IPv4 address instead of localhost to avoid IPv6
			// resolution issues on Windows
			BaseURL:      "http://127.0.0.1:8000",
			TimeoutSecs:  60,
			ResponseMode: "stream",
		},

		Watch: WatchConfig{
			Enabled:    false,
			Dir:        "",
			FolderName: "default",
			DebounceMs: 750,
		},

		Storage: StorageConfig{
			MaxSessions: 100,
		},

		UI: UIConfig{
			Theme:          "dark",
			RenderMarkdown: true,
			CompactMode:    false,
			ShowSources:    true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the folio configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".folio"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err := finishLoad(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finishLoad applies env overrides and validation to a loaded config.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.DefaultFolder == "" {
		cfg.DefaultFolder = defaults.DefaultFolder
	}

	// Backend
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Backend.ResponseMode == "" {
		cfg.Backend.ResponseMode = defaults.Backend.ResponseMode
	}

	// Watch
	if cfg.Watch.FolderName == "" {
		cfg.Watch.FolderName = defaults.Watch.FolderName
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = defaults.Watch.DebounceMs
	}

	// Storage
	if cfg.Storage.MaxSessions == 0 {
		cfg.Storage.MaxSessions = defaults.Storage.MaxSessions
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	fmt.Fprintln(file, "# folio configuration file")
	fmt.Fprintln(file, "# Generated by folio - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Backend
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("invalid URL %q", c.Backend.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("unsupported scheme %q (must be http or https)", u.Scheme),
		})
	}
	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: "must not be negative",
		})
	}
	switch strings.ToLower(c.Backend.ResponseMode) {
	case "stream", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "backend.response_mode",
			Message: fmt.Sprintf("invalid mode %q (must be \"stream\" or \"json\")", c.Backend.ResponseMode),
		})
	}

	// Watch
	if c.Watch.Enabled && c.Watch.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "watch.dir",
			Message: "required when watch.enabled is true",
		})
	}
	if c.Watch.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce_ms",
			Message: "must not be negative",
		})
	}

	// Storage
	if c.Storage.MaxSessions < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_sessions",
			Message: "must not be negative",
		})
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme %q (must be dark, light, or auto)", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - FOLIO_BACKEND_URL: overrides backend.base_url
//   - FOLIO_RESPONSE_MODE: overrides backend.response_mode
//   - FOLIO_FOLDER: overrides default_folder
//   - FOLIO_WATCH_DIR: overrides watch.dir (and enables the watcher)
//   - FOLIO_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if baseURL := os.Getenv("FOLIO_BACKEND_URL"); baseURL != "" {
		c.Backend.BaseURL = baseURL
	}
	if mode := os.Getenv("FOLIO_RESPONSE_MODE"); mode != "" {
		c.Backend.ResponseMode = strings.ToLower(mode)
	}
	if folder := os.Getenv("FOLIO_FOLDER"); folder != "" {
		c.DefaultFolder = folder
	}
	if dir := os.Getenv("FOLIO_WATCH_DIR"); dir != "" {
		c.Watch.Dir = dir
		c.Watch.Enabled = true
	}
	if theme := os.Getenv("FOLIO_THEME"); theme != "" {
		c.UI.Theme = strings.ToLower(theme)
	}
}

// =============================================================================
// KEY-BASED ACCESS
// =============================================================================

// Get returns a configuration value by dotted key.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "default_folder":
		return c.DefaultFolder, nil
	case "backend.base_url":
		return c.Backend.BaseURL, nil
	case "backend.timeout_secs":
		return strconv.Itoa(c.Backend.TimeoutSecs), nil
	case "backend.response_mode":
		return c.Backend.ResponseMode, nil
	case "watch.enabled":
		return strconv.FormatBool(c.Watch.Enabled), nil
	case "watch.dir":
		return c.Watch.Dir, nil
	case "watch.folder_name":
		return c.Watch.FolderName, nil
	case "storage.max_sessions":
		return strconv.Itoa(c.Storage.MaxSessions), nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.render_markdown":
		return strconv.FormatBool(c.UI.RenderMarkdown), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a configuration value by dotted key. The change is validated
// before it is kept.
func (c *Config) Set(key, value string) error {
	updated := *c

	switch strings.ToLower(key) {
	case "default_folder":
		updated.DefaultFolder = value
	case "backend.base_url":
		updated.Backend.BaseURL = value
	case "backend.timeout_secs":
		secs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		updated.Backend.TimeoutSecs = secs
	case "backend.response_mode":
		updated.Backend.ResponseMode = strings.ToLower(value)
	case "watch.enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
		updated.Watch.Enabled = enabled
	case "watch.dir":
		updated.Watch.Dir = value
	case "watch.folder_name":
		updated.Watch.FolderName = value
	case "storage.max_sessions":
		max, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		updated.Storage.MaxSessions = max
	case "ui.theme":
		updated.UI.Theme = strings.ToLower(value)
	case "ui.render_markdown":
		render, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
		updated.UI.RenderMarkdown = render
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := updated.Validate(); err != nil {
		return err
	}
	*c = updated
	return nil
}

// GetAllKeys returns every settable configuration key.
func GetAllKeys() []string {
	return []string{
		"default_folder",
		"backend.base_url",
		"backend.timeout_secs",
		"backend.response_mode",
		"watch.enabled",
		"watch.dir",
		"watch.folder_name",
		"storage.max_sessions",
		"ui.theme",
		"ui.render_markdown",
	}
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig *Config
	globalMu     sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalMu.RLock()
	if globalConfig != nil {
		defer globalMu.RUnlock()
		return globalConfig
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil || cfg == nil {
			cfg = Default()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
	return nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}

// ResetGlobalForTesting clears the global configuration. Test helper only.
func ResetGlobalForTesting() {
	globalMu.Lock()
	globalConfig = nil
	globalMu.Unlock()
}
