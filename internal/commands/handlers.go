// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/backend"
	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/storage"
)

// backendTimeout bounds one-shot backend calls made from command handlers.
// Chat streaming has its own lifecycle and does not go through here.
const backendTimeout = 60 * time.Second

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HandlerContext carries runtime state that commands need beyond the
// injected services: the folder the user is currently chatting against
// and the most recent assistant message for source inspection.
type HandlerContext struct {
	// CurrentFolder is the document folder of the active conversation
	CurrentFolder string

	// LastReply is the most recent committed assistant message, if any
	LastReply *session.Message
}

// SessionInfo is a display-friendly summary of one session.
type SessionInfo struct {
	ID        string
	Title     string
	Folder    string
	CreatedAt time.Time
	Messages  int
	Active    bool
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are returned by command handlers and consumed by the UI
// update loop. Handlers never touch the UI directly.

// ShowHelpMsg requests the help overlay.
type ShowHelpMsg struct {
	Topic string // optional category filter
}

// NewSessionMsg requests a fresh session, optionally in a different folder.
type NewSessionMsg struct {
	Folder string
}

// SessionListMsg carries the session list for display.
type SessionListMsg struct {
	Sessions []SessionInfo
	Error    error
}

// SwitchSessionMsg reports the outcome of a session switch.
type SwitchSessionMsg struct {
	ID    string
	Error error
}

// DeleteSessionMsg reports the outcome of a session deletion.
type DeleteSessionMsg struct {
	ID    string
	Error error
}

// ClearSessionMsg requests that the active session's messages be discarded.
type ClearSessionMsg struct{}

// FolderSwitchMsg requests a change of document folder.
type FolderSwitchMsg struct {
	Folder string
}

// ShowSourcesMsg requests the source inspection overlay.
type ShowSourcesMsg struct {
	// Label selects one citation; empty shows the full source list.
	Label string
	// View is resolved when a label was given.
	View session.SourceView
	// Reply is the message the sources belong to.
	Reply *session.Message
}

// DocumentListMsg carries the ingested documents of a folder.
type DocumentListMsg struct {
	Folder    string
	Documents []backend.DocumentInfo
	Error     error
}

// UploadCompleteMsg reports the outcome of a document upload.
type UploadCompleteMsg struct {
	Path   string
	Result *backend.StoreResult
	Error  error
}

// OutlineReadyMsg carries generated outlines, one per question.
type OutlineReadyMsg struct {
	Outlines []backend.Outline
	Error    error
}

// SearchResultsMsg carries retrieved chunks for a search query.
type SearchResultsMsg struct {
	Query  string
	Folder string
	Hits   []backend.SearchHit
	Error  error
}

// AuthorsUpdatedMsg reports the outcome of author re-detection.
type AuthorsUpdatedMsg struct {
	Folder  string
	Updated int
	Error   error
}

// ExportCompleteMsg reports the outcome of a session export.
type ExportCompleteMsg struct {
	Path  string
	Error error
}

// ShowConfigMsg carries configuration for display.
type ShowConfigMsg struct {
	// Key is empty when the whole config should be shown.
	Key   string
	Value string
	Error error
}

// ConfigUpdatedMsg reports the outcome of a config change.
type ConfigUpdatedMsg struct {
	Key   string
	Value string
	Error error
}

// ShowStatusMsg carries backend reachability and session state.
type ShowStatusMsg struct {
	BackendURL   string
	BackendError error
	Folder       string
	SessionID    string
	SessionCount int
}

// ErrorMsg reports a command error to the user.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// SystemMessageMsg displays an informational line in the conversation.
type SystemMessageMsg struct {
	Content string
}

// =============================================================================
// NAVIGATION HANDLERS
// =============================================================================

// HandleHelp shows the help overlay, optionally filtered by category.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = strings.ToLower(args[0])
	}
	return func() tea.Msg {
		return ShowHelpMsg{Topic: topic}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleStatus reports backend reachability and session state.
func HandleStatus(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		msg := ShowStatusMsg{Folder: ctx.folder("")}
		if ctx.Backend != nil {
			msg.BackendURL = ctx.Backend.GetConfig().BaseURL
			checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			msg.BackendError = ctx.Backend.CheckRunning(checkCtx)
		}
		if ctx.Sessions != nil {
			msg.SessionID = ctx.Sessions.ActiveID()
			msg.SessionCount = ctx.Sessions.Len()
		}
		return msg
	}
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// HandleNew requests a fresh session. The session itself is created lazily
// by the conversation controller on the first send, so this only signals
// the UI to detach from the active session.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	folder := ""
	if len(args) > 0 {
		folder = args[0]
	}
	return func() tea.Msg {
		return NewSessionMsg{Folder: folder}
	}
}

// HandleSessions lists sessions, newest first.
func HandleSessions(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		if ctx.Sessions == nil {
			return SessionListMsg{Error: fmt.Errorf("session store not available")}
		}
		activeID := ctx.Sessions.ActiveID()
		list := ctx.Sessions.List()
		infos := make([]SessionInfo, 0, len(list))
		for _, sess := range list {
			infos = append(infos, SessionInfo{
				ID:        sess.ID,
				Title:     sess.Title,
				Folder:    sess.FolderName,
				CreatedAt: sess.CreatedAt,
				Messages:  len(sess.Messages),
				Active:    sess.ID == activeID,
			})
		}
		return SessionListMsg{Sessions: infos}
	}
}

// HandleSwitch activates another session.
func HandleSwitch(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCmd("Missing Argument", "Usage: /switch <session_id>", "Use /sessions to list session IDs")
	}
	id := args[0]
	return func() tea.Msg {
		if ctx.Sessions == nil {
			return SwitchSessionMsg{ID: id, Error: fmt.Errorf("session store not available")}
		}
		return SwitchSessionMsg{ID: id, Error: ctx.Sessions.SwitchActive(id)}
	}
}

// HandleDelete removes a session from the store and from disk.
func HandleDelete(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCmd("Missing Argument", "Usage: /delete <session_id>", "Use /sessions to list session IDs")
	}
	id := args[0]
	return func() tea.Msg {
		if ctx.Sessions == nil {
			return DeleteSessionMsg{ID: id, Error: fmt.Errorf("session store not available")}
		}
		if err := ctx.Sessions.Delete(id); err != nil {
			return DeleteSessionMsg{ID: id, Error: err}
		}
		if ctx.Storage != nil {
			// Already gone from memory; a disk miss is not worth surfacing.
			_ = ctx.Storage.Delete(id)
		}
		return DeleteSessionMsg{ID: id}
	}
}

// HandleClear empties the active session's message history.
func HandleClear(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearSessionMsg{}
	}
}

// HandleExport writes the active session to a file in the working directory.
func HandleExport(ctx *Context, args []string) tea.Cmd {
	format := "markdown"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}
	switch format {
	case "markdown", "md", "json":
	default:
		return errorCmd("Invalid Format", fmt.Sprintf("Unknown export format: %s", format), "Valid formats: markdown, json")
	}
	return func() tea.Msg {
		if ctx.Sessions == nil {
			return ExportCompleteMsg{Error: fmt.Errorf("session store not available")}
		}
		sess, ok := ctx.Sessions.Active()
		if !ok {
			return ExportCompleteMsg{Error: fmt.Errorf("no active session to export")}
		}
		path, err := storage.WriteExport(sess, format)
		return ExportCompleteMsg{Path: path, Error: err}
	}
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// HandleFolder shows the current folder or switches to a new one.
func HandleFolder(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			folder := ctx.folder("")
			if folder == "" {
				return SystemMessageMsg{Content: "No folder selected. Use /folder <name> to pick one."}
			}
			return SystemMessageMsg{Content: "Current folder: " + folder}
		}
	}
	folder := args[0]
	return func() tea.Msg {
		return FolderSwitchMsg{Folder: folder}
	}
}

// HandleDocs lists the documents ingested into a folder.
func HandleDocs(ctx *Context, args []string) tea.Cmd {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	return func() tea.Msg {
		folder := ctx.folder(arg)
		if folder == "" {
			return DocumentListMsg{Error: fmt.Errorf("no folder selected")}
		}
		if ctx.Backend == nil {
			return DocumentListMsg{Folder: folder, Error: fmt.Errorf("backend not available")}
		}
		callCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		list, err := ctx.Backend.GetDocuments(callCtx, folder)
		if err != nil {
			return DocumentListMsg{Folder: folder, Error: err}
		}
		return DocumentListMsg{Folder: folder, Documents: list.Documents}
	}
}

// HandleUpload ingests a local file into the current folder.
func HandleUpload(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCmd("Missing Argument", "Usage: /upload <path>", "Supported: .txt, .md, .pdf")
	}
	path := args[0]
	return func() tea.Msg {
		if ctx.Ingester == nil {
			return UploadCompleteMsg{Path: path, Error: fmt.Errorf("uploader not available")}
		}
		callCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		result, err := ctx.Ingester.UploadFile(callCtx, path)
		return UploadCompleteMsg{Path: path, Result: result, Error: err}
	}
}

// HandleSources inspects the sources of the last assistant reply.
func HandleSources(ctx *Context, args []string) tea.Cmd {
	label := ""
	if len(args) > 0 {
		label = strings.Join(args, " ")
	}
	return func() tea.Msg {
		if ctx.HandlerCtx == nil || ctx.HandlerCtx.LastReply == nil {
			return ErrorMsg{
				Title:   "No Sources",
				Message: "There is no reply to inspect yet.",
				Tip:     "Sources appear after the first answer.",
			}
		}
		reply := ctx.HandlerCtx.LastReply
		msg := ShowSourcesMsg{Label: label, Reply: reply}
		if label != "" {
			msg.View = session.ResolveSource(*reply, label)
		}
		return msg
	}
}

// HandleOutline generates answer outlines. An explicit question outlines
// just that question; with no arguments every question asked so far in the
// active session is outlined.
func HandleOutline(ctx *Context, args []string) tea.Cmd {
	var questions []string
	if len(args) > 0 {
		questions = []string{strings.Join(args, " ")}
	} else if ctx.Sessions != nil {
		if sess, ok := ctx.Sessions.Active(); ok {
			for _, msg := range sess.Messages {
				if msg.Role == session.RoleUser {
					questions = append(questions, msg.Content)
				}
			}
		}
	}
	if len(questions) == 0 {
		return errorCmd("Nothing to Outline", "Ask a question first, or use /outline <question>", "")
	}
	return func() tea.Msg {
		folder := ctx.folder("")
		if folder == "" {
			return OutlineReadyMsg{Error: fmt.Errorf("no folder selected")}
		}
		if ctx.Backend == nil {
			return OutlineReadyMsg{Error: fmt.Errorf("backend not available")}
		}
		callCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		result, err := ctx.Backend.GenerateOutline(callCtx, backend.OutlineRequest{
			Questions:  questions,
			FolderName: folder,
		})
		if err != nil {
			return OutlineReadyMsg{Error: err}
		}
		if len(result.Outlines) == 0 {
			return OutlineReadyMsg{Error: fmt.Errorf("backend returned no outline")}
		}
		return OutlineReadyMsg{Outlines: result.Outlines}
	}
}

// HandleSearch retrieves raw chunks for a query without generating an answer.
func HandleSearch(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCmd("Missing Argument", "Usage: /search <query>", "")
	}
	query := strings.Join(args, " ")
	return func() tea.Msg {
		folder := ctx.folder("")
		if folder == "" {
			return SearchResultsMsg{Query: query, Error: fmt.Errorf("no folder selected")}
		}
		if ctx.Backend == nil {
			return SearchResultsMsg{Query: query, Folder: folder, Error: fmt.Errorf("backend not available")}
		}
		callCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		result, err := ctx.Backend.SearchChunks(callCtx, backend.SearchRequest{
			Questions:  []string{query},
			FolderName: folder,
		})
		if err != nil {
			return SearchResultsMsg{Query: query, Folder: folder, Error: err}
		}
		return SearchResultsMsg{Query: query, Folder: folder, Hits: result.Results}
	}
}

// HandleAuthors re-runs author detection over a folder's documents.
func HandleAuthors(ctx *Context, args []string) tea.Cmd {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	return func() tea.Msg {
		folder := ctx.folder(arg)
		if folder == "" {
			return AuthorsUpdatedMsg{Error: fmt.Errorf("no folder selected")}
		}
		if ctx.Backend == nil {
			return AuthorsUpdatedMsg{Folder: folder, Error: fmt.Errorf("backend not available")}
		}
		callCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		result, err := ctx.Backend.UpdateDocumentAuthors(callCtx, folder)
		if err != nil {
			return AuthorsUpdatedMsg{Folder: folder, Error: err}
		}
		return AuthorsUpdatedMsg{Folder: folder, Updated: result.UpdatedCount}
	}
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// HandleConfig shows or edits configuration.
func HandleConfig(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		if ctx.Config == nil {
			return ShowConfigMsg{Error: fmt.Errorf("config not available")}
		}
		switch len(args) {
		case 0:
			return ShowConfigMsg{}
		case 1:
			if args[0] == "reload" {
				if err := config.ReloadGlobal(); err != nil {
					return ConfigUpdatedMsg{Key: "reload", Error: err}
				}
				*ctx.Config = *config.Global()
				return SystemMessageMsg{Content: "Configuration reloaded from disk"}
			}
			value, err := ctx.Config.Get(args[0])
			return ShowConfigMsg{Key: args[0], Value: value, Error: err}
		default:
			key := args[0]
			value := strings.Join(args[1:], " ")
			if err := ctx.Config.Set(key, value); err != nil {
				return ConfigUpdatedMsg{Key: key, Value: value, Error: err}
			}
			if err := config.Save(ctx.Config); err != nil {
				return ConfigUpdatedMsg{Key: key, Value: value, Error: err}
			}
			return ConfigUpdatedMsg{Key: key, Value: value}
		}
	}
}

// HandleTheme switches the color theme.
func HandleTheme(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCmd("Missing Argument", "Usage: /theme <dark|light|auto>", "")
	}
	return HandleConfig(ctx, []string{"ui.theme", strings.ToLower(args[0])})
}

// =============================================================================
// HELPERS
// =============================================================================

func errorCmd(title, message, tip string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Title: title, Message: message, Tip: tip}
	}
}
