// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns conversation sessions and their message history.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/folio-tui/internal/util"
)

// TitleMaxRunes is the maximum session title length before truncation.
const TitleMaxRunes = 50

// =============================================================================
// ERRORS
// =============================================================================

// ErrSessionNotFound is returned when a session ID is unknown.
// Use errors.Is(err, ErrSessionNotFound) to check for this error.
var ErrSessionNotFound = &StoreError{Message: "session not found"}

// StoreError represents a session-store error.
// It implements the error interface and can be compared using errors.Is.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one conversation thread bound to a backend folder.
type Session struct {
	ID         string    `json:"id"`
	FolderName string    `json:"folder_name"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	Messages   []Message `json:"messages"`
}

// clone returns a deep-enough copy for handing to readers: the message
// slice is copied so the Store's sequence cannot be mutated from outside.
// Message fields themselves are treated as immutable by convention.
func (s *Session) clone() Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// =============================================================================
// STORE
// =============================================================================

// Store owns the session table and the active-session pointer. It is the
// sole writer of session state; every mutation happens under one lock and
// is fully visible when the call returns.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	activeID string // "" = no active session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// =============================================================================
// CREATE / SWITCH / DELETE
// =============================================================================

// Create adds a new session bound to folderName and makes it active.
// The initial title is the folder name; the first exchange retitles it.
func (st *Store) Create(folderName string) Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess := &Session{
		ID:         "sess_" + uuid.NewString(),
		FolderName: folderName,
		Title:      folderName,
		CreatedAt:  time.Now(),
		Messages:   []Message{},
	}
	st.sessions[sess.ID] = sess
	st.activeID = sess.ID

	return sess.clone()
}

// SwitchActive makes the given session active.
func (st *Store) SwitchActive(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	st.activeID = id
	return nil
}

// Detach clears the active session without deleting anything. The next
// send will create a fresh session.
func (st *Store) Detach() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.activeID = ""
}

// Delete removes a session. If it was active, the first remaining session
// in display order (most recently created) becomes active; with no
// sessions left the active pointer clears to none.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)

	if st.activeID == id {
		st.activeID = ""
		var newest *Session
		for _, sess := range st.sessions {
			if newest == nil || sess.CreatedAt.After(newest.CreatedAt) {
				newest = sess
			}
		}
		if newest != nil {
			st.activeID = newest.ID
		}
	}

	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Active returns a snapshot of the active session, if any.
func (st *Store) Active() (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[st.activeID]
	if !ok {
		return Session{}, false
	}
	return sess.clone(), true
}

// ActiveID returns the active session ID, or "" when none is active.
func (st *Store) ActiveID() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.activeID
}

// Get returns a snapshot of a session by ID.
func (st *Store) Get(id string) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return Session{}, false
	}
	return sess.clone(), true
}

// List returns snapshots of all sessions in display order (most recently
// created first).
func (st *Store) List() []Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]Session, 0, len(st.sessions))
	for _, sess := range st.sessions {
		out = append(out, sess.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// ReplaceMessages swaps a session's entire message sequence transactionally:
// the sequence is one versioned value, never partially mutated from outside.
// The input slice is copied.
func (st *Store) ReplaceMessages(id string, messages []Message) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	replacement := make([]Message, len(messages))
	copy(replacement, messages)
	sess.Messages = replacement
	return nil
}

// Messages returns a copy of a session's message sequence.
func (st *Store) Messages(id string) ([]Message, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	out := make([]Message, len(sess.Messages))
	copy(out, sess.Messages)
	return out, true
}

// =============================================================================
// TITLE OPERATIONS
// =============================================================================

// Retitle sets a session's title to the first TitleMaxRunes characters of
// text, appending an ellipsis marker only if truncation occurred.
func (st *Store) Retitle(id string, text string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	// Collapse newlines so multi-line questions make a one-line title.
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")

	if util.RuneLen(text) > TitleMaxRunes {
		sess.Title = util.TruncateRunesNoEllipsis(text, TitleMaxRunes) + "..."
	} else {
		sess.Title = text
	}
	return nil
}

// =============================================================================
// SEEDING
// =============================================================================

// Seed inserts previously persisted sessions without changing the active
// pointer. Existing IDs are overwritten; intended for startup restore only.
func (st *Store) Seed(sessions []Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for i := range sessions {
		sess := sessions[i].clone()
		if sess.Messages == nil {
			sess.Messages = []Message{}
		}
		st.sessions[sess.ID] = &sess
	}
}
