// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/folio-tui/internal/session"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testSession(id, title string, created time.Time) session.Session {
	return session.Session{
		ID:         id,
		FolderName: "docs",
		Title:      title,
		CreatedAt:  created,
		Messages: []session.Message{
			{ID: "m1", Role: session.RoleUser, Content: "Hello there", Timestamp: created},
			{ID: "m2", Role: session.RoleAssistant, Content: "Hi!", Timestamp: created},
		},
	}
}

// =============================================================================
// SESSION STORE TESTS
// =============================================================================

func TestNewSessionStoreWithDir(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewSessionStoreWithDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if store.BaseDir != tempDir {
		t.Errorf("BaseDir = %q, want %q", store.BaseDir, tempDir)
	}
	if store.MaxSessions != 100 {
		t.Errorf("MaxSessions = %d, want 100", store.MaxSessions)
	}
}

func TestSessionStore_SaveAndLoad(t *testing.T) {
	store, err := NewSessionStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	sess := testSession("sess_1", "Hello there", time.Now().Truncate(time.Second))
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load("sess_1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Title != "Hello there" {
		t.Errorf("Title = %q", loaded.Title)
	}
	if loaded.FolderName != "docs" {
		t.Errorf("FolderName = %q", loaded.FolderName)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("len(Messages) = %d", len(loaded.Messages))
	}
	if loaded.Messages[0].Role != session.RoleUser || loaded.Messages[0].Content != "Hello there" {
		t.Errorf("Messages[0] = %+v", loaded.Messages[0])
	}
}

func TestSessionStore_SaveRejectsEmptyID(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())

	err := store.Save(session.Session{Title: "no id"})
	if !errors.Is(err, ErrEmptyID) {
		t.Errorf("err = %v, want ErrEmptyID", err)
	}
}

func TestSessionStore_LoadMissing(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())

	_, err := store.Load("sess_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSessionStore_LoadAll_MostRecentFirst(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())
	now := time.Now()

	store.Save(testSession("sess_old", "old", now.Add(-time.Hour)))
	store.Save(testSession("sess_new", "new", now))

	sessions, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len = %d", len(sessions))
	}
	if sessions[0].ID != "sess_new" || sessions[1].ID != "sess_old" {
		t.Errorf("order = [%s %s], want newest first", sessions[0].ID, sessions[1].ID)
	}
}

func TestSessionStore_LoadAll_SkipsCorrupted(t *testing.T) {
	tempDir := t.TempDir()
	store, _ := NewSessionStoreWithDir(tempDir)

	store.Save(testSession("sess_good", "good", time.Now()))
	os.WriteFile(filepath.Join(tempDir, "sess_bad.json"), []byte("{not json"), 0644)

	sessions, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "sess_good" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestSessionStore_List(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())
	store.Save(testSession("sess_1", "Hello there", time.Now()))

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("len = %d", len(metas))
	}
	if metas[0].MessageCount != 2 {
		t.Errorf("MessageCount = %d", metas[0].MessageCount)
	}
	if metas[0].Preview != "Hello there" {
		t.Errorf("Preview = %q", metas[0].Preview)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())
	store.Save(testSession("sess_1", "bye", time.Now()))

	if err := store.Delete("sess_1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load("sess_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	if err := store.Delete("sess_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSessionStore_EnforceLimit(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())
	store.MaxSessions = 2
	now := time.Now()

	store.Save(testSession("sess_a", "a", now.Add(-2*time.Hour)))
	store.Save(testSession("sess_b", "b", now.Add(-time.Hour)))
	store.Save(testSession("sess_c", "c", now))

	metas, _ := store.List()
	if len(metas) != 2 {
		t.Fatalf("len = %d, want 2 after limit", len(metas))
	}
	if _, err := store.Load("sess_a"); !errors.Is(err, ErrNotFound) {
		t.Error("oldest session should have been evicted")
	}
}

// =============================================================================
// SEARCH TESTS
// =============================================================================

func TestSessionStore_Search(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())
	store.Save(testSession("sess_1", "About kubernetes", time.Now()))
	store.Save(testSession("sess_2", "About gardening", time.Now()))

	results, err := store.Search("KUBER")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "sess_1" {
		t.Errorf("results = %+v", results)
	}
}

func TestSessionStore_SearchMessages(t *testing.T) {
	store, _ := NewSessionStoreWithDir(t.TempDir())

	sess := testSession("sess_1", "title", time.Now())
	sess.Messages[1].Content = "The answer involves goroutines."
	store.Save(sess)
	store.Save(testSession("sess_2", "other", time.Now()))

	results, err := store.SearchMessages("goroutines")
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "sess_1" {
		t.Errorf("results = %+v", results)
	}
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestExportMarkdown(t *testing.T) {
	sess := testSession("sess_1", "My Session", time.Now())
	sess.Messages[1].Sources = []string{"guide.md"}

	md := ExportMarkdown(sess)

	if !strings.Contains(md, "# My Session") {
		t.Error("missing title heading")
	}
	if !strings.Contains(md, "Folder: docs") {
		t.Error("missing folder line")
	}
	if !strings.Contains(md, "**You**") || !strings.Contains(md, "**Assistant**") {
		t.Errorf("missing role labels:\n%s", md)
	}
	if !strings.Contains(md, "Sources: guide.md") {
		t.Error("missing sources line")
	}
}

func TestFormatSessionList_Empty(t *testing.T) {
	out := FormatSessionList(nil)
	if out != "No sessions found." {
		t.Errorf("out = %q", out)
	}
}

func TestFormatSessionList(t *testing.T) {
	out := FormatSessionList([]SessionMeta{{
		ID:           "sess_1",
		Title:        "My Session",
		FolderName:   "docs",
		CreatedAt:    time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		MessageCount: 4,
	}})

	if !strings.Contains(out, "My Session") || !strings.Contains(out, "docs") {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, "2025-03-01 10:30") {
		t.Errorf("out = %q", out)
	}
}
