// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/folio-tui/internal/commands"
	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/util"
)

// This file turns command handler outcomes into chat state changes. The
// handlers themselves live in internal/commands and never touch the model.

// =============================================================================
// SESSION COMMANDS
// =============================================================================

// handleNewSession detaches from the active session. The next send creates
// a fresh one in the requested folder.
func (m Model) handleNewSession(msg commands.NewSessionMsg) Model {
	if msg.Folder != "" {
		m.folder = msg.Folder
		m.handlerCtx.CurrentFolder = msg.Folder
	}
	if m.store != nil {
		m.store.Detach()
	}
	m.handlerCtx.LastReply = nil
	m.overlay = overlayNone
	m.refreshViewport()
	return m.systemNotice("Started a new conversation in " + m.displayFolder())
}

func (m Model) handleSwitched(msg commands.SwitchSessionMsg) Model {
	if msg.Error != nil {
		return m.showError("Switch Session", msg.Error.Error(), "Use /sessions to list session IDs")
	}
	m.syncFromActiveSession()
	m.overlay = overlayNone
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m
}

// handleClear wipes the active session's messages in place.
func (m Model) handleClear() Model {
	if m.store == nil {
		return m
	}
	sess, ok := m.store.Active()
	if !ok {
		return m.systemNotice("Nothing to clear.")
	}
	if err := m.store.ReplaceMessages(sess.ID, nil); err != nil {
		return m.showError("Clear", err.Error(), "")
	}
	m.handlerCtx.LastReply = nil
	m.refreshViewport()
	return m.systemNotice("Cleared conversation.")
}

// syncFromActiveSession aligns folder and last-reply state with the store.
func (m *Model) syncFromActiveSession() {
	if m.store == nil {
		return
	}
	sess, ok := m.store.Active()
	if !ok {
		m.handlerCtx.LastReply = nil
		return
	}
	m.folder = sess.FolderName
	m.handlerCtx.CurrentFolder = sess.FolderName
	m.handlerCtx.LastReply = lastAssistant(sess.Messages)
}

func (m Model) folderOfActive() string {
	if m.store != nil {
		if sess, ok := m.store.Active(); ok {
			return sess.FolderName
		}
	}
	return m.folder
}

// =============================================================================
// DOCUMENT COMMANDS
// =============================================================================

func (m Model) handleFolderSwitch(msg commands.FolderSwitchMsg) Model {
	m.folder = msg.Folder
	m.handlerCtx.CurrentFolder = msg.Folder
	// Folder changes detach: the next send starts a session in the new folder.
	if m.store != nil {
		if sess, ok := m.store.Active(); ok && sess.FolderName != msg.Folder {
			m.store.Detach()
			m.handlerCtx.LastReply = nil
			m.refreshViewport()
		}
	}
	return m.systemNotice("Folder set to " + msg.Folder)
}

func (m Model) handleDocumentList(msg commands.DocumentListMsg) Model {
	if msg.Error != nil {
		return m.showError("Documents", msg.Error.Error(), "Is the backend running?")
	}
	if len(msg.Documents) == 0 {
		return m.systemNotice("No documents in " + msg.Folder + " yet. Use /upload <path>.")
	}

	var sb strings.Builder
	sb.WriteString("Documents in " + msg.Folder + ":\n")
	for _, doc := range msg.Documents {
		sb.WriteString("  - " + doc.Title)
		if doc.Author != "" {
			sb.WriteString(" (" + doc.Author + ")")
		}
		sb.WriteString("\n")
	}
	return m.systemNotice(strings.TrimRight(sb.String(), "\n"))
}

func (m Model) handleUploadComplete(msg commands.UploadCompleteMsg) Model {
	if msg.Error != nil {
		return m.showError("Upload Failed", msg.Error.Error(), "Supported: .txt, .md, .pdf")
	}
	note := "Uploaded " + msg.Path
	if msg.Result != nil {
		if msg.Result.DocumentTitle != "" {
			note = "Uploaded " + msg.Result.DocumentTitle
		}
		if msg.Result.TotalChunks > 0 {
			note += " (" + util.IntToString(msg.Result.TotalChunks) + " chunks)"
		}
	}
	return m.systemNotice(note)
}

func (m Model) handleOutlineReady(msg commands.OutlineReadyMsg) Model {
	if msg.Error != nil {
		return m.showError("Outline", msg.Error.Error(), "")
	}

	var sb strings.Builder
	for i, outline := range msg.Outlines {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Outline for: " + outline.Question + "\n\n")
		if outline.Error != "" {
			sb.WriteString(outline.Error)
			continue
		}
		sb.WriteString(outline.Outline)
		if len(outline.SourceDocuments) > 0 {
			sb.WriteString("\n\nBased on: " + strings.Join(outline.SourceDocuments, ", "))
		}
	}
	return m.systemNotice(sb.String())
}

func (m Model) handleSearchResults(msg commands.SearchResultsMsg) Model {
	if msg.Error != nil {
		return m.showError("Search", msg.Error.Error(), "")
	}

	var sb strings.Builder
	sb.WriteString("Chunks matching \"" + msg.Query + "\" in " + msg.Folder + ":\n")
	total := 0
	for _, hit := range msg.Hits {
		for _, chunk := range hit.Chunks {
			total++
			excerpt := util.TruncateRunes(strings.TrimSpace(chunk.Text), 160)
			sb.WriteString("  - " + excerpt + "\n")
		}
	}
	if total == 0 {
		return m.systemNotice("No chunks matched \"" + msg.Query + "\".")
	}
	return m.systemNotice(strings.TrimRight(sb.String(), "\n"))
}

// =============================================================================
// SETTINGS AND STATUS
// =============================================================================

func (m Model) handleShowConfig(msg commands.ShowConfigMsg) Model {
	if msg.Error != nil {
		return m.showError("Config", msg.Error.Error(), "See /config for settable keys")
	}
	if msg.Key != "" {
		return m.systemNotice(msg.Key + " = " + msg.Value)
	}

	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	for _, key := range config.GetAllKeys() {
		if value, err := m.cfg.Get(key); err == nil {
			sb.WriteString("  " + key + " = " + value + "\n")
		}
	}
	return m.systemNotice(strings.TrimRight(sb.String(), "\n"))
}

func (m Model) handleShowStatus(msg commands.ShowStatusMsg) Model {
	var sb strings.Builder
	sb.WriteString("Backend: " + msg.BackendURL)
	if msg.BackendError != nil {
		sb.WriteString(" (unreachable: " + msg.BackendError.Error() + ")")
	} else {
		sb.WriteString(" (connected)")
	}
	sb.WriteString("\nFolder: " + m.displayFolder())
	if msg.SessionID != "" {
		sb.WriteString("\nActive session: " + msg.SessionID)
	}
	sb.WriteString("\nSessions: " + util.IntToString(msg.SessionCount))
	return m.systemNotice(sb.String())
}

// =============================================================================
// NOTICES AND ERRORS
// =============================================================================

// systemNotice surfaces an informational line above the input area.
func (m Model) systemNotice(content string) Model {
	m.notice = content
	m.overlay = overlayNone
	return m
}

func (m Model) showError(title, body, tip string) Model {
	m.errTitle = title
	m.errBody = body
	m.errTip = tip
	m.overlay = overlayError
	return m
}

func (m Model) displayFolder() string {
	if m.folder == "" {
		return "(no folder)"
	}
	return m.folder
}

func itoa(n int) string {
	return util.IntToString(n)
}
