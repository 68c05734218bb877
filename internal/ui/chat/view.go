// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/folio-tui/internal/util"
)

// View renders the complete chat interface.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.viewHeader())

	switch m.overlay {
	case overlayWelcome:
		sections = append(sections, m.viewWelcome())
	case overlayHelp:
		sections = append(sections, m.viewHelp())
	case overlaySessions:
		sections = append(sections, m.viewSessions())
	case overlaySources:
		sections = append(sections, m.viewSources())
	case overlayError:
		sections = append(sections, m.viewport.View(), m.viewError())
	default:
		sections = append(sections, m.viewport.View())
	}

	if m.notice != "" && m.overlay == overlayNone {
		sections = append(sections, m.theme.SystemBubble.MaxWidth(m.width).Render(m.notice))
	}
	if m.completion.Visible {
		sections = append(sections, m.viewCompletions())
	}

	sections = append(sections, m.viewInput(), m.viewStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render("folio")
	subtitle := m.theme.HeaderSubtitle.Render(" - ask your documents")
	folder := m.theme.HeaderFolder.Render(m.displayFolder())

	left := title + subtitle
	right := folder
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Container.Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) viewInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) viewStatusBar() string {
	var status string
	switch {
	case m.state == StateStreaming:
		status = m.theme.StatusStreaming.Render(m.spin.View() + " streaming")
	case m.backendUp:
		status = m.theme.StatusConnected.Render("connected")
	default:
		status = m.theme.StatusOffline.Render("backend unreachable")
	}

	shortcuts := m.theme.ShortcutKey.Render("/help") +
		m.theme.ShortcutDesc.Render(" commands  ") +
		m.theme.ShortcutKey.Render("tab") +
		m.theme.ShortcutDesc.Render(" complete  ") +
		m.theme.ShortcutKey.Render("ctrl+c") +
		m.theme.ShortcutDesc.Render(" quit")

	gap := m.width - lipgloss.Width(status) - lipgloss.Width(shortcuts) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(status + strings.Repeat(" ", gap) + shortcuts)
}

func (m Model) viewCompletions() string {
	var sb strings.Builder
	limit := len(m.completion.Completions)
	if limit > 8 {
		limit = 8
	}
	for i := 0; i < limit; i++ {
		c := m.completion.Completions[i]
		line := c.Display
		if c.Description != "" {
			line += "  " + m.theme.CompletionDesc.Render(c.Description)
		}
		if i == m.completion.Selected {
			sb.WriteString(m.theme.CompletionSelected.Render(line))
		} else {
			sb.WriteString(m.theme.CompletionItem.Render(line))
		}
		if i < limit-1 {
			sb.WriteString("\n")
		}
	}
	return m.theme.CompletionPopup.Render(sb.String())
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) viewWelcome() string {
	content := m.theme.WelcomeLogo.Render("folio") + "\n\n" +
		m.theme.WelcomeInfo.Render("A terminal client for your document library.") + "\n\n" +
		m.theme.WelcomeKey.Render("/folder <name>") + m.theme.WelcomeInfo.Render("  choose a document folder") + "\n" +
		m.theme.WelcomeKey.Render("/upload <path>") + m.theme.WelcomeInfo.Render("  ingest a document") + "\n" +
		m.theme.WelcomeKey.Render("/help") + m.theme.WelcomeInfo.Render("          all commands") + "\n\n" +
		m.theme.WelcomePressKey.Render("Start typing to ask a question")

	return m.centerOverlay(m.theme.WelcomeBox.Render(content))
}

func (m Model) viewHelp() string {
	var sb strings.Builder
	sb.WriteString(m.theme.SourceTitle.Render("Commands") + "\n\n")

	byCat := m.registry.ByCategory()
	for _, category := range []string{"Navigation", "Sessions", "Documents", "Settings"} {
		cmds := byCat[category]
		if len(cmds) == 0 {
			continue
		}
		if m.helpTopic != "" && !strings.EqualFold(m.helpTopic, category) {
			continue
		}
		sb.WriteString(m.theme.SessionTitle.Render(category) + "\n")
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			sb.WriteString("  " + m.theme.ShortcutKey.Render(padRight(usage, 26)) +
				m.theme.ShortcutDesc.Render(cmd.Description) + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.theme.WelcomePressKey.Render("esc to close"))

	return m.centerOverlay(m.theme.SessionList.Render(sb.String()))
}

func (m Model) viewSessions() string {
	var sb strings.Builder
	sb.WriteString(m.theme.SourceTitle.Render("Sessions") + "\n\n")

	if len(m.sessionList) == 0 {
		sb.WriteString(m.theme.SessionMeta.Render("No sessions yet."))
	}
	for _, info := range m.sessionList {
		marker := "  "
		if info.Active {
			marker = m.theme.StatusConnected.Render("* ")
		}
		title := info.Title
		if title == "" {
			title = "(untitled)"
		}
		sb.WriteString(marker + m.theme.SessionTitle.Render(util.TruncateRunes(title, 40)) + "\n")
		sb.WriteString("    " + m.theme.SessionID.Render(info.ID) +
			m.theme.SessionMeta.Render("  "+info.Folder+"  "+
				info.CreatedAt.Format("2006-01-02 15:04")+"  "+
				util.IntToString(info.Messages)+" msgs") + "\n")
	}
	sb.WriteString("\n" + m.theme.WelcomePressKey.Render("/switch <id> to activate, esc to close"))

	return m.centerOverlay(m.theme.SessionList.Render(sb.String()))
}

func (m Model) viewSources() string {
	var sb strings.Builder
	reply := m.sourcesView.Reply

	if m.sourcesView.Label == "" {
		sb.WriteString(m.theme.SourceTitle.Render("Sources for the last reply") + "\n\n")
		if reply == nil || len(reply.Sources) == 0 {
			sb.WriteString(m.theme.SessionMeta.Render("The last reply cited no sources."))
		}
		if reply != nil {
			for _, label := range reply.Sources {
				sb.WriteString("  " + m.theme.SourceItem.Render(label))
				if author, ok := reply.SourceAuthors[label]; ok && author != "" {
					sb.WriteString(m.theme.SourceAuthor.Render("  by " + author))
				}
				sb.WriteString("\n")
			}
			sb.WriteString("\n" + m.theme.WelcomePressKey.Render("/sources <label> for chunk excerpts"))
		}
	} else {
		view := m.sourcesView.View
		sb.WriteString(m.theme.SourceTitle.Render(view.Label) + "\n")
		if view.AuthorKnown {
			sb.WriteString(m.theme.SourceAuthor.Render("by "+view.Author) + "\n")
		} else {
			sb.WriteString(m.theme.SessionMeta.Render("author unknown") + "\n")
		}
		sb.WriteString("\n")
		if !view.Available {
			sb.WriteString(m.theme.SessionMeta.Render("No chunk data for this source."))
		}
		for i, chunk := range view.Chunks {
			if i >= 5 {
				sb.WriteString(m.theme.SessionMeta.Render("... and " +
					util.IntToString(len(view.Chunks)-i) + " more chunks") + "\n")
				break
			}
			var tags []string
			if chunk.Metadata.TotalChunks > 0 {
				tags = append(tags, "chunk "+util.IntToString(chunk.Metadata.ChunkIndex+1)+
					"/"+util.IntToString(chunk.Metadata.TotalChunks))
			}
			if chunk.Distance != nil {
				tags = append(tags, "distance "+util.FloatToString(*chunk.Distance))
			}
			if len(tags) > 0 {
				sb.WriteString(m.theme.SessionMeta.Render(strings.Join(tags, "  ")) + "\n")
			}
			excerpt := util.TruncateRunes(strings.TrimSpace(chunk.Text), 400)
			sb.WriteString(m.theme.SourceChunk.MaxWidth(m.overlayWidth()).Render(excerpt) + "\n\n")
		}
	}
	sb.WriteString("\n" + m.theme.WelcomePressKey.Render("esc to close"))

	return m.centerOverlay(m.theme.SourceOverlay.MaxWidth(m.overlayWidth() + 6).Render(sb.String()))
}

func (m Model) viewError() string {
	content := m.theme.ErrorTitle.Render(m.errTitle) + "\n" +
		m.theme.ErrorMessage.Render(wrapText(m.errBody, m.overlayWidth()))
	if m.errTip != "" {
		content += "\n" + m.theme.ErrorTip.Render("Tip: " + m.errTip)
	}
	return m.theme.ErrorBox.MaxWidth(m.width).Render(content)
}

// =============================================================================
// LAYOUT HELPERS
// =============================================================================

func (m Model) centerOverlay(content string) string {
	height := m.viewport.Height
	if height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) overlayWidth() int {
	w := m.width - 12
	if w < 40 {
		w = 40
	}
	if w > 90 {
		w = 90
	}
	return w
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}
