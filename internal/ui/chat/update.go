// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/commands"
	"github.com/jeranaias/folio-tui/internal/conversation"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/storage"
)

// Update handles all incoming messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case backendStatusMsg:
		m.backendUp = msg.up
		return m, scheduleBackendProbe(m.client)

	case StreamTickMsg:
		return m.handleStreamTick()

	case SendFinishedMsg:
		return m.handleSendFinished(msg)

	// Command handler outcomes.
	case commands.ShowHelpMsg:
		m.overlay = overlayHelp
		m.helpTopic = msg.Topic
		return m, nil

	case commands.NewSessionMsg:
		return m.handleNewSession(msg), nil

	case commands.SessionListMsg:
		if msg.Error != nil {
			return m.showError("Sessions", msg.Error.Error(), ""), nil
		}
		m.sessionList = msg.Sessions
		m.overlay = overlaySessions
		return m, nil

	case commands.SwitchSessionMsg:
		return m.handleSwitched(msg), nil

	case commands.DeleteSessionMsg:
		if msg.Error != nil {
			return m.showError("Delete Session", msg.Error.Error(), "Use /sessions to list session IDs"), nil
		}
		m.syncFromActiveSession()
		return m.systemNotice("Deleted session " + msg.ID), nil

	case commands.ClearSessionMsg:
		return m.handleClear(), nil

	case commands.FolderSwitchMsg:
		return m.handleFolderSwitch(msg), nil

	case commands.ShowSourcesMsg:
		m.sourcesView = msg
		m.overlay = overlaySources
		return m, nil

	case commands.DocumentListMsg:
		return m.handleDocumentList(msg), nil

	case commands.UploadCompleteMsg:
		return m.handleUploadComplete(msg), nil

	case commands.OutlineReadyMsg:
		return m.handleOutlineReady(msg), nil

	case commands.SearchResultsMsg:
		return m.handleSearchResults(msg), nil

	case commands.AuthorsUpdatedMsg:
		if msg.Error != nil {
			return m.showError("Update Authors", msg.Error.Error(), ""), nil
		}
		return m.systemNotice("Updated authors for " + itoa(msg.Updated) + " document(s) in " + msg.Folder), nil

	case commands.ExportCompleteMsg:
		if msg.Error != nil {
			return m.showError("Export", msg.Error.Error(), ""), nil
		}
		return m.systemNotice("Exported to " + msg.Path), nil

	case commands.ShowConfigMsg:
		return m.handleShowConfig(msg), nil

	case commands.ConfigUpdatedMsg:
		if msg.Error != nil {
			return m.showError("Config", msg.Error.Error(), "See /config for settable keys"), nil
		}
		if msg.Key == "ui.theme" {
			m.theme = themeForConfig(m.cfg)
		}
		return m.systemNotice("Set " + msg.Key + " = " + msg.Value), nil

	case commands.ShowStatusMsg:
		return m.handleShowStatus(msg), nil

	case commands.ErrorMsg:
		return m.showError(msg.Title, msg.Message, msg.Tip), nil

	case commands.SystemMessageMsg:
		return m.systemNotice(msg.Content), nil
	}

	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	headerHeight := 3
	inputHeight := 3
	statusHeight := 1
	vpHeight := msg.Height - headerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = newViewport(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 4

	m.refreshViewport()
	return m
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {

	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.completion.Visible {
			m.completion.Clear()
			return m, nil
		}
		if m.overlay != overlayNone {
			m.overlay = overlayNone
			return m, nil
		}
		return m, nil

	case "tab":
		return m.handleCompletionKey(false), nil

	case "shift+tab":
		return m.handleCompletionKey(true), nil

	case "up", "down", "pgup", "pgdown":
		// Completion navigation wins over scrolling when the popup is open.
		if m.completion.Visible && msg.String() == "up" {
			m.completion.Prev()
			return m, nil
		}
		if m.completion.Visible && msg.String() == "down" {
			m.completion.Next()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		return m.handleSubmit()

	default:
		if m.overlay == overlayWelcome {
			m.overlay = overlayNone
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.updateCompletion()
		return m, cmd
	}
}

// handleCompletionKey advances the completion popup, opening it on demand.
func (m Model) handleCompletionKey(reverse bool) Model {
	if !m.completion.Visible {
		input := m.input.Value()
		if !commands.IsCommand(input) {
			return m
		}
		completions := m.completer.Complete(input, len(input))
		if len(completions) == 0 {
			return m
		}
		m.completion.Update(input, completions)
		return m
	}
	if reverse {
		m.completion.Prev()
	} else {
		m.completion.Next()
	}
	return m
}

// updateCompletion refreshes the popup as the user types a command.
func (m *Model) updateCompletion() {
	input := m.input.Value()
	if !commands.IsCommand(input) {
		m.completion.Clear()
		return
	}
	completions := m.completer.Complete(input, len(input))
	if len(completions) == 0 {
		m.completion.Clear()
		return
	}
	m.completion.Update(input, completions)
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m Model) handleSubmit() (Model, tea.Cmd) {
	// An open completion accepts into the input line first.
	if m.completion.Visible {
		return m.acceptCompletion(), nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if commands.IsCommand(text) {
		return m.dispatchCommand(text)
	}

	if m.state == StateStreaming {
		return m.showError("Busy", "A reply is already streaming.", "Wait for it to finish first"), nil
	}
	if m.folder == "" {
		return m.showError("No Folder", "Select a document folder before asking.", "Use /folder <name>"), nil
	}

	m.input.Reset()
	m.completion.Clear()
	m.overlay = overlayNone
	m.state = StateStreaming
	m.pending = text
	m.draft = ""
	m.streamBuf.Reset()
	m.refreshViewport()

	return m, tea.Batch(
		startSendCmd(m.controller, m.folder, text, m.streamBuf),
		streamTickCmd(),
	)
}

// acceptCompletion replaces the trailing token with the selected completion.
func (m Model) acceptCompletion() Model {
	value := m.completion.Accept()
	if value == "" {
		m.completion.Clear()
		return m
	}

	input := m.input.Value()
	if name := commands.GetPartialCommand(input); name != "" {
		m.input.SetValue(value + " ")
	} else {
		idx := strings.LastIndexAny(input, " ")
		if idx == -1 {
			m.input.SetValue(value + " ")
		} else {
			m.input.SetValue(input[:idx+1] + value)
		}
	}
	m.input.CursorEnd()
	m.completion.Clear()
	return m
}

// dispatchCommand parses, validates and runs a slash command.
func (m Model) dispatchCommand(text string) (Model, tea.Cmd) {
	result := m.parser.Parse(text)
	if result.Command == nil {
		return m.showError("Unknown Command", result.CommandName+" is not a command.", "Type /help for the list"), nil
	}
	if err := commands.ValidateArgs(result.Command, result.Args); err != nil {
		return m.showError("Invalid Arguments", err.Error(), result.Command.Usage), nil
	}

	m.input.Reset()
	m.completion.Clear()
	return m, result.Command.Handler(m.cmdCtx, result.Args)
}

// =============================================================================
// STREAMING
// =============================================================================

func (m Model) handleStreamTick() (Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if chunk, ok := m.streamBuf.Flush(); ok {
		m.draft += chunk
		m.refreshViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

func (m Model) handleSendFinished(msg SendFinishedMsg) (Model, tea.Cmd) {
	m.state = StateReady
	m.pending = ""
	m.draft = ""
	m.streamBuf.Reset()

	if msg.Err != nil {
		m.refreshViewport()
		return m.sendErrorModel(msg.Err), nil
	}

	m.folder = m.folderOfActive()
	m.handlerCtx.CurrentFolder = m.folder
	reply := msg.Result.Assistant
	m.handlerCtx.LastReply = &reply

	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, persistSessionCmd(m.storage, m.store, msg.Result.SessionID)
}

// sendErrorModel maps controller errors to user-facing messages.
func (m Model) sendErrorModel(err error) Model {
	switch {
	case errors.Is(err, conversation.ErrBusy):
		return m.showError("Busy", "That session already has an exchange in flight.", "")
	default:
		return m.showError("Exchange Failed", err.Error(), "The conversation was restored to its previous state")
	}
}

// persistSessionCmd saves the committed session to disk off the UI thread.
// A save failure surfaces as a warning line, not an error overlay: the
// exchange itself already committed in memory.
func persistSessionCmd(disk *storage.SessionStore, store *session.Store, id string) tea.Cmd {
	if disk == nil || store == nil {
		return nil
	}
	return func() tea.Msg {
		sess, ok := store.Get(id)
		if !ok {
			return nil
		}
		if err := disk.Save(sess); err != nil {
			return commands.SystemMessageMsg{Content: "Warning: session not saved: " + err.Error()}
		}
		return nil
	}
}
