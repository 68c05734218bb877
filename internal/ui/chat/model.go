// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/backend"
	"github.com/jeranaias/folio-tui/internal/commands"
	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/conversation"
	"github.com/jeranaias/folio-tui/internal/ingest"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/storage"
	"github.com/jeranaias/folio-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streaming reply
)

// overlay identifies which full-screen panel, if any, covers the chat.
type overlay int

const (
	overlayNone overlay = iota
	overlayWelcome
	overlayHelp
	overlaySessions
	overlaySources
	overlayError
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state   State
	overlay overlay

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Services
	cfg        *config.Config
	controller *conversation.Controller
	store      *session.Store
	storage    *storage.SessionStore
	client     *backend.Client

	// Command system
	registry   *commands.Registry
	parser     *commands.Parser
	completer  *commands.Completer
	completion *commands.CompletionState
	cmdCtx     *commands.Context
	handlerCtx *commands.HandlerContext

	// Runtime conversation state
	folder    string
	streamBuf *StreamingBuffer
	draft     string // streaming reply accumulated for display
	pending   string // user text shown while the exchange is in flight

	// Overlay payloads
	sessionList []commands.SessionInfo
	sourcesView commands.ShowSourcesMsg
	helpTopic   string
	errTitle    string
	errBody     string
	errTip      string
	notice      string

	// Backend reachability, refreshed periodically
	backendUp bool

	// Widgets
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
}

// New creates a chat model wired to the given services.
func New(cfg *config.Config, client *backend.Client, ctrl *conversation.Controller, store *session.Store, disk *storage.SessionStore, ing *ingest.Ingester) Model {
	theme := themeForConfig(cfg)

	input := textinput.New()
	input.Placeholder = "Ask about your documents, or type / for commands"
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.Spinner

	registry := commands.NewRegistry()
	handlerCtx := &commands.HandlerContext{CurrentFolder: cfg.DefaultFolder}
	cmdCtx := commands.NewContext(cfg, client, store, disk, ing).WithHandlerContext(handlerCtx)

	completer := commands.NewCompleter(registry)

	m := Model{
		state:      StateReady,
		overlay:    overlayWelcome,
		theme:      theme,
		cfg:        cfg,
		controller: ctrl,
		store:      store,
		storage:    disk,
		client:     client,
		registry:   registry,
		parser:     commands.NewParser(registry),
		completer:  completer,
		completion: commands.NewCompletionState(),
		cmdCtx:     cmdCtx,
		handlerCtx: handlerCtx,
		folder:     cfg.DefaultFolder,
		streamBuf:  NewStreamingBuffer(),
		input:      input,
		spin:       spin,
	}

	completer.SessionsFn = m.completionSessions
	completer.FoldersFn = m.completionFolders
	completer.SourcesFn = m.completionSources
	completer.ConfigFn = config.GetAllKeys

	return m
}

// themeForConfig honors an explicit ui.theme, falling back to detection.
func themeForConfig(cfg *config.Config) *styles.Theme {
	switch cfg.UI.Theme {
	case "dark":
		return styles.NewThemeForMode(true)
	case "light":
		return styles.NewThemeForMode(false)
	default:
		return styles.NewTheme()
	}
}

// Init starts the spinner, cursor blink and the first backend probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		checkBackendCmd(m.client),
	)
}

// =============================================================================
// BACKEND PROBE
// =============================================================================

// backendStatusMsg reports whether the backend answered the health probe.
type backendStatusMsg struct {
	up bool
}

func checkBackendCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return backendStatusMsg{up: false}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return backendStatusMsg{up: client.CheckRunning(ctx) == nil}
	}
}

// scheduleBackendProbe re-checks reachability every 15 seconds.
func scheduleBackendProbe(client *backend.Client) tea.Cmd {
	return tea.Tick(15*time.Second, func(time.Time) tea.Msg {
		msg := checkBackendCmd(client)()
		return msg
	})
}

// =============================================================================
// COMPLETION SOURCES
// =============================================================================

func (m Model) completionSessions() []commands.SessionInfo {
	if m.store == nil {
		return nil
	}
	active := m.store.ActiveID()
	list := m.store.List()
	infos := make([]commands.SessionInfo, 0, len(list))
	for _, sess := range list {
		infos = append(infos, commands.SessionInfo{
			ID:        sess.ID,
			Title:     sess.Title,
			Folder:    sess.FolderName,
			CreatedAt: sess.CreatedAt,
			Messages:  len(sess.Messages),
			Active:    sess.ID == active,
		})
	}
	return infos
}

// completionFolders collects folder names from known sessions plus the
// configured default. The backend has no folder-listing endpoint.
func (m Model) completionFolders() []string {
	seen := map[string]bool{}
	var folders []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			folders = append(folders, name)
		}
	}
	add(m.folder)
	if m.cfg != nil {
		add(m.cfg.DefaultFolder)
		add(m.cfg.Watch.FolderName)
	}
	if m.store != nil {
		for _, sess := range m.store.List() {
			add(sess.FolderName)
		}
	}
	return folders
}

func (m Model) completionSources() []string {
	if m.handlerCtx == nil || m.handlerCtx.LastReply == nil {
		return nil
	}
	return m.handlerCtx.LastReply.Sources
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Folder returns the document folder the chat is currently targeting.
func (m Model) Folder() string {
	return m.folder
}

// Streaming reports whether an exchange is in flight.
func (m Model) Streaming() bool {
	return m.state == StateStreaming
}
