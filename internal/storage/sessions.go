// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/util"
)

// =============================================================================
// SESSION METADATA
// =============================================================================

// SessionMeta contains metadata for listing sessions without loading the
// full message history.
type SessionMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	FolderName   string    `json:"folder_name"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"` // First user message truncated
}

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore handles session persistence.
type SessionStore struct {
	// BaseDir is the directory for storing sessions
	// Default: ~/.folio/sessions/
	BaseDir string

	// MaxSessions limits stored sessions (0 = unlimited)
	MaxSessions int
}

// NewSessionStore creates a session store under the user's home directory.
func NewSessionStore() (*SessionStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	return NewSessionStoreWithDir(filepath.Join(homeDir, ".folio", "sessions"))
}

// NewSessionStoreWithDir creates a store with a custom directory.
func NewSessionStoreWithDir(baseDir string) (*SessionStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &SessionStore{
		BaseDir:     baseDir,
		MaxSessions: 100,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a session.
func (s *SessionStore) Save(sess session.Session) error {
	if sess.ID == "" {
		return ErrEmptyID
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.filePath(sess.ID), data, 0644); err != nil {
		return err
	}

	if s.MaxSessions > 0 {
		s.enforceLimit()
	}

	return nil
}

// enforceLimit removes oldest sessions if over limit.
func (s *SessionStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxSessions {
		return
	}

	// Oldest first
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.Before(metas[j].CreatedAt)
	})

	excess := len(metas) - s.MaxSessions
	for i := 0; i < excess; i++ {
		s.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a session by ID.
func (s *SessionStore) Load(id string) (session.Session, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return session.Session{}, ErrNotFound
		}
		return session.Session{}, err
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, err
	}

	return sess, nil
}

// LoadAll loads every stored session, most recently created first.
// Corrupted files are skipped so one bad entry never blocks startup.
func (s *SessionStore) LoadAll() ([]session.Session, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []session.Session{}, nil
		}
		return nil, err
	}

	var sessions []session.Session

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		sess, err := s.Load(id)
		if err != nil {
			continue // Skip corrupted files
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns metadata for all saved sessions (most recent first).
func (s *SessionStore) List() ([]SessionMeta, error) {
	sessions, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	metas := make([]SessionMeta, 0, len(sessions))
	for _, sess := range sessions {
		metas = append(metas, SessionMeta{
			ID:           sess.ID,
			Title:        sess.Title,
			FolderName:   sess.FolderName,
			CreatedAt:    sess.CreatedAt,
			MessageCount: len(sess.Messages),
			Preview:      previewOf(sess),
		})
	}

	return metas, nil
}

// Search finds sessions whose title or preview matches a query string.
func (s *SessionStore) Search(query string) ([]SessionMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []SessionMeta

	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}

	return results, nil
}

// SearchMessages searches sessions by message content (case-insensitive).
func (s *SessionStore) SearchMessages(query string) ([]SessionMeta, error) {
	if query == "" {
		return s.List()
	}

	query = strings.ToLower(query)
	sessions, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	var results []SessionMeta

	for _, sess := range sessions {
		for _, msg := range sess.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, SessionMeta{
					ID:           sess.ID,
					Title:        sess.Title,
					FolderName:   sess.FolderName,
					CreatedAt:    sess.CreatedAt,
					MessageCount: len(sess.Messages),
					Preview:      previewOf(sess),
				})
				break
			}
		}
	}

	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a session by ID.
func (s *SessionStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved sessions.
func (s *SessionStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// filePath returns the file path for a session ID.
func (s *SessionStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// previewOf returns the first user message, truncated for display.
func previewOf(sess session.Session) string {
	for _, msg := range sess.Messages {
		if msg.Role == session.RoleUser && msg.Content != "" {
			return util.TruncateRunes(msg.Content, 80)
		}
	}
	return ""
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a session file doesn't exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StorageError{Message: "session not found"}

// ErrEmptyID is returned when saving a session without an ID.
var ErrEmptyID = &StorageError{Message: "session has no ID"}

// StorageError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// SESSION LIST FORMATTING
// =============================================================================

// FormatSessionList formats session metadata as a display table.
func FormatSessionList(metas []SessionMeta) string {
	if len(metas) == 0 {
		return "No sessions found."
	}

	var sb strings.Builder
	sb.WriteString("Sessions:\n")
	sb.WriteString("-----------------------------------------------------\n")
	sb.WriteString(formatPadded("Title", 30) + " " + formatPadded("Folder", 14) + " " + formatPadded("Created", 17) + " Msgs\n")
	sb.WriteString("-----------------------------------------------------\n")

	for _, m := range metas {
		sb.WriteString(formatPadded(util.TruncateRunes(m.Title, 30), 30) + " " +
			formatPadded(util.TruncateRunes(m.FolderName, 14), 14) + " " +
			formatPadded(m.CreatedAt.Format("2006-01-02 15:04"), 17) + " " +
			util.IntToString(m.MessageCount) + "\n")
	}
	return sb.String()
}

// formatPadded pads a string to the specified width with spaces.
func formatPadded(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	padding := width - len(runes)
	for i := 0; i < padding; i++ {
		s += " "
	}
	return s
}

// =============================================================================
// SESSION EXPORT
// =============================================================================

// ExportMarkdown renders a session as a Markdown transcript, including its
// citation labels.
func ExportMarkdown(sess session.Session) string {
	var sb strings.Builder
	sb.WriteString("# " + sess.Title + "\n\n")
	sb.WriteString("Folder: " + sess.FolderName + "\n\n")
	sb.WriteString("Created: " + sess.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range sess.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
		if msg.HasSources() {
			sb.WriteString("\nSources: " + strings.Join(msg.Sources, ", ") + "\n")
		}
		sb.WriteString("\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders a session as pretty-printed JSON.
func ExportJSON(sess session.Session) ([]byte, error) {
	return json.MarshalIndent(sess, "", "  ")
}

// WriteExport renders a session in the given format ("markdown", "md" or
// "json") and writes it to a file in the working directory. Returns the
// path written.
func WriteExport(sess session.Session, format string) (string, error) {
	var (
		data []byte
		ext  string
	)
	switch format {
	case "markdown", "md":
		data = []byte(ExportMarkdown(sess))
		ext = "md"
	case "json":
		var err error
		data, err = ExportJSON(sess)
		if err != nil {
			return "", err
		}
		ext = "json"
	default:
		return "", &StorageError{Message: "unsupported export format: " + format}
	}

	name := "folio-" + exportSlug(sess.Title)
	if name == "folio-" {
		name = "folio-" + sess.ID
	}
	path := name + "-" + time.Now().Format("20060102-150405") + "." + ext
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// exportSlug reduces a title to a filesystem-safe fragment.
func exportSlug(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('-')
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug
}
