// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/backend"
	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/ingest"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/storage"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/switch <session_id>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Type determines completion behavior
	Type ArgType

	// Description explains the argument
	Description string

	// Values for enum types
	Values []string

	// Completer for custom completion
	Completer func() []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString  ArgType = iota // Free-form string
	ArgTypeSession                // Session ID from the store
	ArgTypeFolder                 // Backend document folder
	ArgTypeSource                 // Citation label from the last reply
	ArgTypeFile                   // File path
	ArgTypeEnum                   // One of predefined values
	ArgTypeConfig                 // Config key
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.commands {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [<category>]",
		Args: []ArgDef{
			{
				Name:        "category",
				Required:    false,
				Type:        ArgTypeEnum,
				Values:      []string{"navigation", "sessions", "documents", "settings"},
				Description: "Help category",
			},
		},
		Category: "Navigation",
		Handler:  HandleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit folio",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})

	r.Register(&Command{
		Name:        "/status",
		Description: "Show backend and session status",
		Category:    "Navigation",
		Handler:     HandleStatus,
	})

	// Session commands
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new session",
		Usage:       "/new [folder]",
		Args: []ArgDef{
			{Name: "folder", Required: false, Type: ArgTypeFolder, Description: "Document folder for the new session"},
		},
		Category: "Sessions",
		Handler:  HandleNew,
	})

	r.Register(&Command{
		Name:        "/sessions",
		Aliases:     []string{"/list"},
		Description: "List sessions",
		Category:    "Sessions",
		Handler:     HandleSessions,
	})

	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/sw"},
		Description: "Switch to another session",
		Usage:       "/switch <session_id>",
		Args: []ArgDef{
			{Name: "session_id", Required: true, Type: ArgTypeSession, Description: "ID of the session to activate"},
		},
		Category: "Sessions",
		Handler:  HandleSwitch,
	})

	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/del"},
		Description: "Delete a session",
		Usage:       "/delete <session_id>",
		Args: []ArgDef{
			{Name: "session_id", Required: true, Type: ArgTypeSession, Description: "ID of the session to delete"},
		},
		Category: "Sessions",
		Handler:  HandleDelete,
	})

	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the current session's messages",
		Category:    "Sessions",
		Handler:     HandleClear,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the current session to a file",
		Usage:       "/export [format]",
		Args: []ArgDef{
			{Name: "format", Required: false, Type: ArgTypeEnum, Values: []string{"markdown", "md", "json"}, Description: "Export format"},
		},
		Category: "Sessions",
		Handler:  HandleExport,
	})

	// Document commands
	r.Register(&Command{
		Name:        "/folder",
		Aliases:     []string{"/f"},
		Description: "Show or switch the document folder",
		Usage:       "/folder [name]",
		Args: []ArgDef{
			{Name: "name", Required: false, Type: ArgTypeFolder, Description: "Folder to switch to"},
		},
		Category: "Documents",
		Handler:  HandleFolder,
	})

	r.Register(&Command{
		Name:        "/docs",
		Aliases:     []string{"/documents"},
		Description: "List documents in the current folder",
		Usage:       "/docs [folder]",
		Args: []ArgDef{
			{Name: "folder", Required: false, Type: ArgTypeFolder, Description: "Folder to list"},
		},
		Category: "Documents",
		Handler:  HandleDocs,
	})

	r.Register(&Command{
		Name:        "/upload",
		Aliases:     []string{"/up"},
		Description: "Upload a document to the current folder",
		Usage:       "/upload <path>",
		Args: []ArgDef{
			{Name: "path", Required: true, Type: ArgTypeFile, Description: "Local file to upload (.txt, .md, .pdf)"},
		},
		Category: "Documents",
		Handler:  HandleUpload,
	})

	r.Register(&Command{
		Name:        "/sources",
		Aliases:     []string{"/src"},
		Description: "Inspect the sources behind the last reply",
		Usage:       "/sources [label]",
		Args: []ArgDef{
			{Name: "label", Required: false, Type: ArgTypeSource, Description: "Citation label to inspect"},
		},
		Category: "Documents",
		Handler:  HandleSources,
	})

	r.Register(&Command{
		Name:        "/outline",
		Description: "Outline a question, or the session's questions so far",
		Usage:       "/outline [question]",
		Args: []ArgDef{
			{Name: "question", Required: false, Type: ArgTypeString, Description: "Question to outline (default: session history)"},
		},
		Category: "Documents",
		Handler:  HandleOutline,
	})

	r.Register(&Command{
		Name:        "/search",
		Description: "Search stored chunks in the current folder",
		Usage:       "/search <query>",
		Args: []ArgDef{
			{Name: "query", Required: true, Type: ArgTypeString, Description: "Search text"},
		},
		Category: "Documents",
		Handler:  HandleSearch,
	})

	r.Register(&Command{
		Name:        "/authors",
		Description: "Re-detect document authors in the current folder",
		Usage:       "/authors [folder]",
		Args: []ArgDef{
			{Name: "folder", Required: false, Type: ArgTypeFolder, Description: "Folder to update"},
		},
		Category: "Documents",
		Handler:  HandleAuthors,
	})

	// Settings commands
	r.Register(&Command{
		Name:        "/config",
		Description: "Show or edit configuration",
		Usage:       "/config [key|reload] [value]",
		Args: []ArgDef{
			{Name: "key", Required: false, Type: ArgTypeConfig, Description: "Config key to show/set"},
			{Name: "value", Required: false, Type: ArgTypeString, Description: "New value"},
		},
		Category: "Settings",
		Handler:  HandleConfig,
	})

	r.Register(&Command{
		Name:        "/theme",
		Description: "Change color theme",
		Usage:       "/theme <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeEnum, Values: []string{"dark", "light", "auto"}, Description: "Theme name"},
		},
		Category: "Settings",
		Handler:  HandleTheme,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context provides access to application state for command handlers.
// It follows the dependency injection pattern, allowing handlers to access
// services without direct coupling to the application structure.
//
// All fields are optional and may be nil - handlers should check before use.
type Context struct {
	// Config provides access to application configuration
	Config *config.Config

	// Backend is the client for backend operations
	Backend *backend.Client

	// Sessions is the in-memory session store
	Sessions *session.Store

	// Storage handles session persistence
	Storage *storage.SessionStore

	// Ingester uploads local documents
	Ingester *ingest.Ingester

	// HandlerCtx provides additional runtime context
	HandlerCtx *HandlerContext
}

// NewContext creates a new command context with the given dependencies.
// All parameters are optional and can be nil.
func NewContext(cfg *config.Config, client *backend.Client, sessions *session.Store, store *storage.SessionStore, ing *ingest.Ingester) *Context {
	return &Context{
		Config:   cfg,
		Backend:  client,
		Sessions: sessions,
		Storage:  store,
		Ingester: ing,
	}
}

// WithHandlerContext attaches a HandlerContext to the Context.
func (c *Context) WithHandlerContext(hctx *HandlerContext) *Context {
	c.HandlerCtx = hctx
	return c
}

// folder resolves the folder an operation should target: explicit argument,
// then the runtime folder, then the configured default.
func (c *Context) folder(arg string) string {
	if arg != "" {
		return arg
	}
	if c.HandlerCtx != nil && c.HandlerCtx.CurrentFolder != "" {
		return c.HandlerCtx.CurrentFolder
	}
	if c.Config != nil {
		return c.Config.DefaultFolder
	}
	return ""
}

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value to insert
	Value string

	// Display text (may include formatting)
	Display string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int

	// IsCurrent indicates this is the current selection
	IsCurrent bool
}
