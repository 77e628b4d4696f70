package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/nexus/internal/chat"
)

func (m *model) View() string {
	m.refreshTranscriptIfDirty()
	return joinNonEmpty([]string{
		m.heroView(),
		m.swarmView(),
		sectionHeaderStyle.Render("Transcript"),
		m.viewport.View(),
		m.statusLines(),
		m.composerPanel(),
		m.footerView(),
	})
}

func (m *model) heroView() string {
	title := titleStyle.Render("NEXUS::OMNI")
	provider := ""
	if m.config.ProviderName != "" {
		provider = helperStyle.Render(" · " + m.config.ProviderName)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		title+provider,
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) swarmView() string {
	badge := idleBadgeStyle.Render(m.stage.label())
	if m.stage.busy() {
		badge = stageBadgeStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.stage.label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.grid.render(), "  ", badge+m.syncBadge())
}

func (m *model) syncBadge() string {
	if m.config.Session == nil {
		return ""
	}
	switch {
	case m.syncing:
		return helperStyle.Render("  ⇅ syncing…")
	case !m.lastSyncAt.IsZero():
		return helperStyle.Render("  ⇅ synced " + m.lastSyncAt.Format("15:04:05"))
	case m.remote != nil:
		return helperStyle.Render("  ⇅ linked")
	default:
		return helperStyle.Render("  ⇅ offline")
	}
}

func (m *model) statusLines() string {
	var parts []string
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	return joinNonEmpty(parts)
}

func (m *model) composerPanel() string {
	parts := []string{sectionHeaderStyle.Render("Composer")}
	if len(m.pendingAttachments) > 0 {
		names := make([]string, 0, len(m.pendingAttachments))
		for _, attachment := range m.pendingAttachments {
			names = append(names, attachment.Name)
		}
		parts = append(parts, helperStyle.Render("Staged: "+strings.Join(names, ", ")))
	}
	parts = append(parts, m.composer.View(), helperStyle.Render(composerHelp))
	return joinNonEmpty(parts)
}

func (m *model) footerView() string {
	if len(m.logs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.logs)+1)
	lines = append(lines, sectionHeaderStyle.Render("Swarm Log"))
	for _, entry := range m.logs {
		style := logInfoStyle
		switch entry.Level {
		case logWarn:
			style = logWarnStyle
		case logSuccess:
			style = logSuccessStyle
		case logError:
			style = logErrorStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s  %s", entry.At.Format("15:04:05"), entry.Message)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) refreshTranscriptIfDirty() {
	if !m.transcriptDirty {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
	m.transcriptDirty = false
}

func (m *model) renderTranscript() string {
	if len(m.messages) == 0 {
		return helperStyle.Render("The archive is empty. Speak, and NEXUS will answer.")
	}
	width := m.viewport.Width
	if width < minViewportWidth {
		width = minViewportWidth
	}
	blocks := make([]string, 0, len(m.messages))
	for _, message := range m.messages {
		blocks = append(blocks, renderMessage(message, width))
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(message chat.Message, width int) string {
	var b strings.Builder
	switch {
	case message.Role == chat.RoleUser:
		b.WriteString(userLabelStyle.Render("YOU"))
	case message.IsThinking:
		b.WriteString(thoughtStyle.Render("NEXUS ◈ internal simulation"))
	default:
		b.WriteString(modelLabelStyle.Render("NEXUS"))
	}
	b.WriteRune('\n')

	content := wordwrap.String(message.Content, width)
	if message.IsThinking {
		content = thoughtStyle.Render(content)
	}
	b.WriteString(content)

	for _, attachment := range message.Attachments {
		b.WriteRune('\n')
		label := "⎘ " + attachment.Name
		if attachment.Caption != "" {
			label += " — " + attachment.Caption
		}
		b.WriteString(helperStyle.Render(label))
	}
	for _, chunk := range message.Grounding {
		b.WriteRune('\n')
		b.WriteString(groundingStyle.Render(fmt.Sprintf("↗ %s (%s)", chunk.Title, chunk.URI)))
	}
	if message.AudioData != "" {
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("♪ narration attached"))
	}
	return b.String()
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
