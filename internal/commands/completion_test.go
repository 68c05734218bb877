// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestCompleter() *Completer {
	return NewCompleter(NewRegistry())
}

func values(completions []Completion) []string {
	out := make([]string, len(completions))
	for i, c := range completions {
		out[i] = c.Value
	}
	return out
}

func containsValue(completions []Completion, want string) bool {
	for _, c := range completions {
		if c.Value == want {
			return true
		}
	}
	return false
}

func TestComplete_CommandPrefix(t *testing.T) {
	c := newTestCompleter()

	completions := c.Complete("/se", 3)
	if !containsValue(completions, "/sessions") {
		t.Errorf("expected /sessions in %v", values(completions))
	}
	if !containsValue(completions, "/search") {
		t.Errorf("expected /search in %v", values(completions))
	}
	if containsValue(completions, "/help") {
		t.Errorf("/help should not match /se: %v", values(completions))
	}
}

func TestComplete_ExactNameRanksAboveAlias(t *testing.T) {
	c := newTestCompleter()

	completions := c.Complete("/s", 2)
	if len(completions) < 2 {
		t.Fatalf("expected several matches, got %v", values(completions))
	}

	// Aliases are docked, so a primary name should lead.
	if strings.HasPrefix(completions[0].Display, "/s ->") {
		t.Errorf("alias ranked first: %v", completions[0])
	}
}

func TestComplete_NonCommandInput(t *testing.T) {
	c := newTestCompleter()

	if completions := c.Complete("tell me about the contract", 10); completions != nil {
		t.Errorf("plain text should not complete, got %v", values(completions))
	}
}

func TestComplete_SessionArgument(t *testing.T) {
	c := newTestCompleter()
	c.SessionsFn = func() []SessionInfo {
		return []SessionInfo{
			{ID: "abc123", Title: "Termination questions", Folder: "contracts"},
			{ID: "def456", Title: "Reading notes", Folder: "notes"},
		}
	}

	completions := c.Complete("/switch ab", 10)
	if len(completions) != 1 {
		t.Fatalf("got %v", values(completions))
	}
	if completions[0].Value != "abc123" {
		t.Errorf("value = %s", completions[0].Value)
	}
	if completions[0].Description != "contracts" {
		t.Errorf("description = %s", completions[0].Description)
	}
}

func TestComplete_SessionByTitle(t *testing.T) {
	c := newTestCompleter()
	c.SessionsFn = func() []SessionInfo {
		return []SessionInfo{
			{ID: "abc123", Title: "Termination questions"},
		}
	}

	completions := c.Complete("/switch termination", 19)
	if !containsValue(completions, "abc123") {
		t.Errorf("title match should offer the session ID, got %v", values(completions))
	}
}

func TestComplete_FolderArgument(t *testing.T) {
	c := newTestCompleter()
	c.FoldersFn = func() []string {
		return []string{"contracts", "notes", "research"}
	}

	completions := c.Complete("/folder con", 11)
	if len(completions) != 1 || completions[0].Value != "contracts" {
		t.Errorf("got %v", values(completions))
	}
}

func TestComplete_SourceArgument(t *testing.T) {
	c := newTestCompleter()
	c.SourcesFn = func() []string {
		return []string{"agreement.pdf", "appendix.md"}
	}

	completions := c.Complete("/sources ag", 11)
	if len(completions) != 1 || completions[0].Value != "agreement.pdf" {
		t.Errorf("got %v", values(completions))
	}
}

func TestComplete_EnumArgument(t *testing.T) {
	c := newTestCompleter()

	completions := c.Complete("/export j", 9)
	if len(completions) != 1 || completions[0].Value != "json" {
		t.Errorf("got %v", values(completions))
	}
}

func TestComplete_ConfigKeys(t *testing.T) {
	c := newTestCompleter()

	completions := c.Complete("/config backend.", 16)
	if !containsValue(completions, "backend.base_url") {
		t.Errorf("expected backend.base_url in %v", values(completions))
	}
	if containsValue(completions, "ui.theme") {
		t.Errorf("ui.theme should not match backend. prefix: %v", values(completions))
	}
}

func TestComplete_FileArgumentFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report.pdf", "notes.md", "binary.exe"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	c := newTestCompleter()
	prefix := dir + string(os.PathSeparator)
	completions := c.Complete("/upload "+prefix, len("/upload ")+len(prefix))

	if !containsValue(completions, filepath.Join(dir, "report.pdf")) {
		t.Errorf("expected report.pdf in %v", values(completions))
	}
	if !containsValue(completions, filepath.Join(dir, "notes.md")) {
		t.Errorf("expected notes.md in %v", values(completions))
	}
	if containsValue(completions, filepath.Join(dir, "binary.exe")) {
		t.Errorf("binary.exe should be filtered: %v", values(completions))
	}
}

func TestCompletionState_Navigation(t *testing.T) {
	cs := NewCompletionState()
	cs.Update("/se", []Completion{
		{Value: "/search"},
		{Value: "/sessions"},
	})

	if !cs.Visible {
		t.Error("expected visible state")
	}
	if cs.Accept() != "/search" {
		t.Errorf("first accept = %s", cs.Accept())
	}

	cs.Next()
	if cs.Accept() != "/sessions" {
		t.Errorf("after Next accept = %s", cs.Accept())
	}

	cs.Next() // wraps
	if cs.Accept() != "/search" {
		t.Errorf("wrap accept = %s", cs.Accept())
	}

	cs.Prev()
	if cs.Accept() != "/sessions" {
		t.Errorf("after Prev accept = %s", cs.Accept())
	}

	cs.Clear()
	if cs.Visible || len(cs.Completions) != 0 {
		t.Error("clear should reset state")
	}
}
