// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeranaias/folio-tui/internal/util"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments.
//
// The Fn callbacks supply live application state; the UI wires them at
// startup. A nil callback disables that completion kind (files fall back
// to scanning the working directory).
type Completer struct {
	registry *Registry

	SessionsFn func() []SessionInfo         // known sessions
	FoldersFn  func() []string              // known document folders
	SourcesFn  func() []string              // citation labels of the last reply
	ConfigFn   func() []string              // config keys
	FilesFn    func(prefix string) []string // matching files
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{
		registry: registry,
	}
}

// GetCommand returns a command by name from the completer's registry.
func (c *Completer) GetCommand(name string) *Command {
	if c.registry == nil {
		return nil
	}
	return c.registry.Get(name)
}

// Complete returns completions for the input up to the cursor. Plain chat
// text never completes; only slash commands do.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	if cursorPos < len(input) {
		input = input[:cursorPos]
	}

	if !strings.HasPrefix(strings.TrimSpace(input), "/") {
		return nil
	}

	parts := splitCommandLine(input)
	midToken := !strings.HasSuffix(input, " ")

	switch {
	case len(parts) == 0:
		return c.completeCommands("")
	case len(parts) == 1 && midToken:
		return c.completeCommands(parts[0])
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil {
		return nil
	}

	// parts[0] is the command; a trailing space starts the next argument.
	argIndex := len(parts) - 2
	partial := ""
	if midToken {
		partial = parts[len(parts)-1]
	} else {
		argIndex++
	}

	return c.completeArg(cmd, argIndex, partial)
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeCommands returns completions for command names. Aliases complete
// too but rank below the names they stand for.
func (c *Completer) completeCommands(partial string) []Completion {
	var completions []Completion
	partial = strings.ToLower(partial)

	add := func(value, display, description string, penalty int) {
		if !strings.HasPrefix(strings.ToLower(value), partial) {
			return
		}
		completions = append(completions, Completion{
			Value:       value,
			Display:     display,
			Description: description,
			Score:       matchScore(value, partial) - penalty,
		})
	}

	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		add(cmd.Name, cmd.Name, cmd.Description, 0)
		for _, alias := range cmd.Aliases {
			add(alias, alias+" -> "+cmd.Name, cmd.Description, 10)
		}
	}

	rankCompletions(completions)
	return completions
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

// completeArg returns completions for a command argument.
func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	arg := cmd.Args[argIndex]

	switch arg.Type {
	case ArgTypeSession:
		return c.completeSessions(partial)
	case ArgTypeFolder:
		return c.completeFolders(partial)
	case ArgTypeSource:
		return c.completeSources(partial)
	case ArgTypeFile:
		return c.completeFiles(partial)
	case ArgTypeEnum:
		return c.completeFromList(arg.Values, partial)
	case ArgTypeConfig:
		return c.completeConfig(partial)
	case ArgTypeString:
		if arg.Completer != nil {
			return c.completeFromList(arg.Completer(), partial)
		}
		return nil
	default:
		return nil
	}
}

// completeSessions returns completions for session IDs.
func (c *Completer) completeSessions(partial string) []Completion {
	if c.SessionsFn == nil {
		return nil
	}

	var completions []Completion
	partial = strings.ToLower(partial)

	for _, sess := range c.SessionsFn() {
		idMatch := strings.HasPrefix(strings.ToLower(sess.ID), partial)
		titleMatch := strings.Contains(strings.ToLower(sess.Title), partial)
		if !idMatch && !titleMatch {
			continue
		}

		// A title-only hit still completes to the ID, just below direct
		// ID matches.
		score := matchScore(sess.ID, partial)
		if !idMatch {
			score -= 5
		}

		display := sess.ID
		if sess.Title != "" {
			display = sess.ID + " - " + util.TruncateRunes(sess.Title, 30)
		}

		completions = append(completions, Completion{
			Value:       sess.ID,
			Display:     display,
			Description: sess.Folder,
			Score:       score,
		})
	}

	rankCompletions(completions)
	return completions
}

// completeFolders returns completions for document folder names.
func (c *Completer) completeFolders(partial string) []Completion {
	if c.FoldersFn == nil {
		return nil
	}
	return c.completeFromList(c.FoldersFn(), partial)
}

// completeSources returns completions for citation labels.
func (c *Completer) completeSources(partial string) []Completion {
	if c.SourcesFn == nil {
		return nil
	}
	return c.completeFromList(c.SourcesFn(), partial)
}

// completeFiles returns completions for file paths.
func (c *Completer) completeFiles(partial string) []Completion {
	if c.FilesFn != nil {
		return c.completeFromList(c.FilesFn(partial), partial)
	}
	return c.defaultFileCompletion(partial)
}

// defaultFileCompletion provides basic file path completion. Only uploadable
// extensions and directories are offered.
func (c *Completer) defaultFileCompletion(partial string) []Completion {
	var completions []Completion

	if partial == "" {
		partial = "."
	}

	dir := filepath.Dir(partial)
	prefix := filepath.Base(partial)
	if strings.HasSuffix(partial, string(os.PathSeparator)) {
		dir = partial
		prefix = ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	prefix = strings.ToLower(prefix)

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), prefix) {
			continue
		}

		// Dotfiles complete only when the user typed the leading dot.
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			path += string(os.PathSeparator)
		} else if !uploadableExt(name) {
			continue
		}

		score := matchScore(name, prefix)
		if entry.IsDir() {
			score += 5
		}

		desc := ""
		if info, err := entry.Info(); err == nil {
			if entry.IsDir() {
				desc = "directory"
			} else {
				desc = formatFileSize(info.Size())
			}
		}

		completions = append(completions, Completion{
			Value:       path,
			Display:     name,
			Description: desc,
			Score:       score,
		})
	}

	rankCompletions(completions)

	if len(completions) > 20 {
		completions = completions[:20]
	}

	return completions
}

// uploadableExt reports whether a filename has an extension the backend
// accepts for ingestion.
func uploadableExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

// completeConfig returns completions for config keys.
func (c *Completer) completeConfig(partial string) []Completion {
	var keys []string
	if c.ConfigFn != nil {
		keys = c.ConfigFn()
	} else {
		keys = []string{
			"default_folder",
			"backend.base_url", "backend.timeout_secs", "backend.response_mode",
			"storage.max_sessions",
			"ui.theme", "ui.render_markdown", "ui.compact_mode", "ui.show_sources",
		}
	}

	return c.completeFromList(keys, partial)
}

// completeFromList offers every value in the list matching the typed prefix.
func (c *Completer) completeFromList(values []string, partial string) []Completion {
	var completions []Completion
	partial = strings.ToLower(partial)

	for _, value := range values {
		if !strings.HasPrefix(strings.ToLower(value), partial) {
			continue
		}
		completions = append(completions, Completion{
			Value:   value,
			Display: value,
			Score:   matchScore(value, partial),
		})
	}

	rankCompletions(completions)
	return completions
}

// =============================================================================
// RANKING
// =============================================================================

// matchScore ranks a candidate against what the user typed. Exact matches
// beat prefix matches; among prefix matches, shorter candidates win.
func matchScore(value, typed string) int {
	v := strings.ToLower(value)
	t := strings.ToLower(typed)
	switch {
	case v == t:
		return 200
	case strings.HasPrefix(v, t):
		return 170 - len(v)
	default:
		return 100 - len(v)/2
	}
}

// rankCompletions orders by score descending, ties broken alphabetically
// so the popup is stable across keystrokes.
func rankCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		a, b := completions[i], completions[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Value < b.Value
	})
}

// formatFileSize renders a byte count with one decimal of precision for
// the completion popup.
func formatFileSize(size int64) string {
	units := []struct {
		limit int64
		name  string
	}{
		{1 << 30, "GB"},
		{1 << 20, "MB"},
		{1 << 10, "KB"},
	}
	for _, u := range units {
		if size >= u.limit {
			scaled := float64(size) / float64(u.limit)
			whole := int64(scaled)
			if tenth := int64(scaled*10) % 10; tenth != 0 {
				return util.Int64ToString(whole) + "." + util.Int64ToString(tenth) + " " + u.name
			}
			return util.Int64ToString(whole) + " " + u.name
		}
	}
	return util.Int64ToString(size) + " B"
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// CompletionState tracks the open popup: the candidates, which one is
// highlighted, and the input it was computed from.
type CompletionState struct {
	// OriginalInput is the input the candidates were computed from
	OriginalInput string

	// Completions is the current candidate list
	Completions []Completion

	// Selected indexes Completions; -1 when nothing is highlighted
	Selected int

	// Visible reports whether the popup should render
	Visible bool
}

// NewCompletionState creates an empty, hidden completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{Selected: -1}
}

// Update replaces the candidate list. The top candidate is pre-selected so
// a lone Tab accepts the best match.
func (cs *CompletionState) Update(input string, completions []Completion) {
	cs.OriginalInput = input
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next highlights the following candidate, wrapping at the end.
func (cs *CompletionState) Next() {
	if n := len(cs.Completions); n > 0 {
		cs.Selected = (cs.Selected + 1) % n
	}
}

// Prev highlights the preceding candidate, wrapping at the start.
func (cs *CompletionState) Prev() {
	if n := len(cs.Completions); n > 0 {
		cs.Selected = (cs.Selected + n - 1) % n
	}
}

// Accept returns the highlighted candidate's value, falling back to the
// top candidate, or empty when there are none.
func (cs *CompletionState) Accept() string {
	if sel := cs.GetSelected(); sel != nil {
		return sel.Value
	}
	if len(cs.Completions) > 0 {
		return cs.Completions[0].Value
	}
	return ""
}

// Clear hides the popup and drops the candidates.
func (cs *CompletionState) Clear() {
	*cs = CompletionState{Selected: -1}
}

// GetSelected returns the highlighted candidate, or nil.
func (cs *CompletionState) GetSelected() *Completion {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		return nil
	}
	return &cs.Completions[cs.Selected]
}
