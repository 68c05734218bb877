// folio TUI - a terminal client for a local RAG document backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/backend"
	"github.com/jeranaias/folio-tui/internal/commands"
	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/conversation"
	"github.com/jeranaias/folio-tui/internal/ingest"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/storage"
	"github.com/jeranaias/folio-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const usage = `folio - chat with your documents from the terminal

Usage:
  folio                  Start the interactive TUI
  folio ask [flags] Q    Ask a single question and print the answer
  folio sessions [query] List saved sessions, optionally filtered
  folio version          Print version information
  folio help             Show this help

Ask flags:
  -folder NAME    Document folder to query (default: config default_folder)
  -backend URL    Backend base URL (overrides config)
  -sources        Print cited source labels after the answer

The backend is a local folio document service; configure its URL in
~/.folio/config.toml or with FOLIO_BACKEND_URL.
`

func main() {
	args := os.Args[1:]

	if len(args) == 0 {
		runTUI()
		return
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("folio %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	case "help", "--help", "-h":
		fmt.Print(usage)
	case "ask":
		runAsk(args[1:])
	case "sessions":
		runSessions(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "folio: unknown command %q\n\n%s", args[0], usage)
		os.Exit(2)
	}
}

// =============================================================================
// WIRING
// =============================================================================

// loadConfig loads the user's config, warning (not failing) when a config
// file exists but cannot be parsed.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio: using defaults: %v\n", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	config.SetGlobal(cfg)
	return cfg
}

func newBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	})
}

func newController(client *backend.Client, store *session.Store, cfg *config.Config) *conversation.Controller {
	mode := conversation.ModeStream
	if cfg.Backend.ResponseMode == "json" {
		mode = conversation.ModeJSON
	}
	return conversation.NewController(client, store, conversation.Config{Mode: mode})
}

// =============================================================================
// TUI MODE
// =============================================================================

func runTUI() {
	cfg := loadConfig()
	client := newBackendClient(cfg)

	store := session.NewStore()

	// Disk persistence is best-effort: the TUI is fully usable without it.
	disk, err := storage.NewSessionStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio: session persistence disabled: %v\n", err)
		disk = nil
	} else {
		if cfg.Storage.MaxSessions > 0 {
			disk.MaxSessions = cfg.Storage.MaxSessions
		}
		if saved, err := disk.LoadAll(); err == nil {
			store.Seed(saved)
		}
	}

	ctrl := newController(client, store, cfg)
	ing := ingest.NewIngester(client, cfg.Watch.FolderName)
	ing.DefaultAuthor = cfg.Watch.DefaultAuthor

	m := chat.New(cfg, client, ctrl, store, disk, ing)

	p := tea.NewProgram(
		chat.NewApp(m),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// The watch folder feeds upload results straight into the running
	// program, so they surface in the transcript like /upload results.
	if cfg.Watch.Enabled && cfg.Watch.Dir != "" {
		debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
		watcher, err := ingest.StartWatcher(ing, cfg.Watch.Dir, debounce,
			func(path string, res *backend.StoreResult, err error) {
				p.Send(commands.UploadCompleteMsg{Path: path, Result: res, Error: err})
			})
		if err != nil {
			fmt.Fprintf(os.Stderr, "folio: watch folder disabled: %v\n", err)
		} else {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "folio: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// SESSIONS MODE
// =============================================================================

// runSessions prints the saved session list, optionally filtered by a query
// matched against titles, previews, and message content.
func runSessions(args []string) {
	cfg := config.Global()

	disk, err := storage.NewSessionStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio sessions: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.MaxSessions > 0 {
		disk.MaxSessions = cfg.Storage.MaxSessions
	}

	var metas []storage.SessionMeta
	if len(args) == 0 {
		metas, err = disk.List()
	} else {
		query := strings.Join(args, " ")
		metas, err = disk.Search(query)
		if err == nil {
			// Title/preview hits first, then sessions matched by content.
			seen := make(map[string]bool, len(metas))
			for _, meta := range metas {
				seen[meta.ID] = true
			}
			if byContent, cerr := disk.SearchMessages(query); cerr == nil {
				for _, meta := range byContent {
					if !seen[meta.ID] {
						metas = append(metas, meta)
					}
				}
			}
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio sessions: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.TrimSuffix(storage.FormatSessionList(metas), "\n"))
}

// =============================================================================
// ASK MODE
// =============================================================================

// runAsk sends a single question and streams the answer to stdout. The
// exchange runs through the same controller as the TUI, so a failure leaves
// nothing committed and exits non-zero.
func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	folder := fs.String("folder", "", "document folder to query")
	backendURL := fs.String("backend", "", "backend base URL")
	showSources := fs.Bool("sources", false, "print cited source labels")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "folio ask: missing question")
		os.Exit(2)
	}
	question := fs.Arg(0)

	cfg := loadConfig()
	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}
	if *folder == "" {
		*folder = cfg.DefaultFolder
	}

	client := newBackendClient(cfg)
	store := session.NewStore()
	ctrl := newController(client, store, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := ctrl.Send(ctx, *folder, question, func(delta string) {
		fmt.Print(delta)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nfolio ask: %v\n", err)
		os.Exit(1)
	}

	// The delta callback printed the whole answer in both modes: streamed
	// replies arrive chunk by chunk, json replies as a single delta.
	fmt.Println()

	if *showSources && len(result.Assistant.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, label := range result.Assistant.Sources {
			fmt.Printf("  - %s\n", label)
		}
	}
}
