// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/folio-tui/internal/session"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer for assistant replies.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)
	if err != nil {
		// Plain text fallback when the renderer cannot initialize.
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or is disabled.
func (m Model) renderMarkdown(content string) string {
	if m.cfg != nil && !m.cfg.UI.RenderMarkdown {
		return content
	}
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// =============================================================================
// VIEWPORT CONTENT
// =============================================================================

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// refreshViewport rebuilds the conversation transcript.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
}

// renderConversation renders the committed messages of the active session,
// plus the in-flight user turn and streaming draft when an exchange runs.
func (m Model) renderConversation() string {
	var sb strings.Builder

	if m.store != nil {
		if sess, ok := m.store.Active(); ok {
			for _, msg := range sess.Messages {
				sb.WriteString(m.renderMessage(msg))
				sb.WriteString("\n\n")
			}
		}
	}

	if m.state == StateStreaming {
		sb.WriteString(m.renderUserText(m.pending))
		sb.WriteString("\n\n")
		if m.draft != "" {
			sb.WriteString(m.renderAssistantText(m.draft, nil))
		} else {
			sb.WriteString(m.theme.ThinkingText.Render(m.spin.View() + " thinking..."))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderMessage(msg session.Message) string {
	switch msg.Role {
	case session.RoleUser:
		return m.renderUserText(msg.Content)
	case session.RoleAssistant:
		return m.renderAssistantText(msg.Content, msg.Sources)
	default:
		return m.theme.SystemBubble.Render(msg.Content)
	}
}

func (m Model) renderUserText(content string) string {
	width := m.bubbleWidth()
	return m.theme.UserBubble.MaxWidth(width).Render(wrapText(content, width-6))
}

func (m Model) renderAssistantText(content string, sources []string) string {
	width := m.bubbleWidth()
	body := m.renderMarkdown(content)
	out := m.theme.AssistantBubble.MaxWidth(width).Render(body)

	if len(sources) > 0 && m.showSources() {
		line := "Sources: " + strings.Join(sources, ", ")
		out += "\n" + m.theme.SourceLine.Render(wrapText(line, width))
	}
	return out
}

func (m Model) showSources() bool {
	return m.cfg == nil || m.cfg.UI.ShowSources
}

func (m Model) bubbleWidth() int {
	if m.width <= 0 {
		return 80
	}
	if m.width > 100 {
		return 100
	}
	return m.width
}

// =============================================================================
// TEXT WRAPPING
// =============================================================================

// wrapText wraps text at word boundaries using go-runewidth so wide
// characters count their true terminal cells.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	if runewidth.StringWidth(line) <= width {
		return line
	}

	var out strings.Builder
	lineWidth := 0
	for _, word := range strings.Fields(line) {
		wordWidth := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+wordWidth > width {
			out.WriteString("\n")
			lineWidth = 0
		} else if lineWidth > 0 {
			out.WriteString(" ")
			lineWidth++
		}

		// Hard-break words wider than the whole line.
		for wordWidth > width {
			head := runewidth.Truncate(word, width, "")
			out.WriteString(head)
			out.WriteString("\n")
			word = strings.TrimPrefix(word, head)
			wordWidth = runewidth.StringWidth(word)
		}

		out.WriteString(word)
		lineWidth += wordWidth
	}
	return out.String()
}

// lastAssistant returns the most recent assistant message, or nil.
func lastAssistant(messages []session.Message) *session.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleAssistant {
			msg := messages[i]
			return &msg
		}
	}
	return nil
}
