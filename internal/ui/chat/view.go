// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the quiz view component for the TUI.
//
// This file contains the rendering logic for the quiz interface:
//   - Main view composition (header, transcript, input, status bar)
//   - Message rendering (questions, answers, assistant insights)
//   - Error box and help overlay
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/quizchat-tui/internal/model"
	"github.com/jeranaias/quizchat-tui/internal/ui/styles"
	"github.com/jeranaias/quizchat-tui/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete quiz view.
// Layout: header + transcript (viewport) + [thinking] + [error] + input + status.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
	}

	if m.state == StateSubmitting {
		sections = append(sections, m.renderThinking())
	}

	if m.lastError != nil {
		sections = append(sections, m.renderErrorBox())
	}

	sections = append(sections,
		m.renderInput(),
		m.renderStatusBar(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) renderHeader() string {
	name := m.opts.QuizName
	if name == "" {
		name = "Quiz"
	}

	title := m.theme.HeaderTitle.Render(name)
	state := m.theme.HeaderSubtitle.Render(m.stateLabel())

	return m.theme.Header.Width(m.width - 2).Render(title + "  " + state)
}

func (m Model) stateLabel() string {
	if m.quizDone {
		return "free conversation"
	}
	switch m.state {
	case StateSubmitting:
		return "waiting for reply"
	case StateError:
		return "error"
	default:
		return "in progress"
	}
}

func (m Model) renderThinking() string {
	elapsed := time.Since(m.submitStart).Seconds()
	return m.theme.Container.Render(
		m.spinner.View() + " " +
			m.theme.ThinkingText.Render("Waiting for insight") + " " +
			m.theme.ThinkingTime.Render(fmt.Sprintf("%.0fs", elapsed)),
	)
}

func (m Model) renderErrorBox() string {
	box := m.theme.ErrorTitle.Render(m.lastError.Title) + "\n" +
		m.theme.ErrorMessage.Render(m.lastError.Message)
	if m.lastError.Dismissible {
		box += "\n" + m.theme.ErrorTip.Render("Your answer was not recorded. Press esc to dismiss and try again.")
	}
	return m.theme.ErrorBox.Width(m.width - 4).Render(box)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	answered := m.engine.Archive().Len()
	total := m.engine.QuestionCount()

	var progress string
	if total > 0 {
		percent := float64(answered) / float64(total) * 100
		progress = m.theme.ProgressLabel.Render(fmt.Sprintf("%d/%d ", answered, total)) +
			m.theme.ProgressBar.Render(styles.RenderProgressBar(16, percent))
	}

	right := m.statusMsg
	if right == "" {
		right = m.renderShortcuts()
	} else {
		// Long messages (export paths) must not push the bar past the
		// terminal edge.
		maxRight := m.width - lipgloss.Width(progress) - 4
		right = util.TruncateRunes(right, maxRight)
	}

	gap := m.width - lipgloss.Width(progress) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return m.theme.StatusBar.Width(m.width).Render(
		progress + strings.Repeat(" ", gap) + right,
	)
}

func (m Model) renderShortcuts() string {
	var parts []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		parts = append(parts,
			m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderHelpOverlay() string {
	var sb strings.Builder
	sb.WriteString(m.theme.HeaderTitle.Render("Keyboard shortcuts"))
	sb.WriteString("\n\n")
	for _, group := range m.keyMap.FullHelp() {
		for _, b := range group {
			h := b.Help()
			sb.WriteString(fmt.Sprintf("  %s  %s\n",
				m.theme.ShortcutKey.Render(fmt.Sprintf("%-8s", h.Key)),
				m.theme.ShortcutDesc.Render(h.Desc)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.theme.ShortcutDesc.Render("  Press any key to close"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
}

func (m *Model) renderMessages() string {
	msgs := m.engine.Messages()
	if len(msgs) == 0 {
		return m.renderEmptyState()
	}

	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderMessage(msg *model.Message) string {
	width := m.bubbleWidth()

	if msg.IsQuestion() {
		label := ""
		if msg.QuestionID != nil {
			label = m.theme.HeaderSubtitle.Render(fmt.Sprintf("Question %d", *msg.QuestionID+1)) + "\n"
		}
		return label + m.theme.QuestionBubble.Width(width).Render(msg.Content)
	}

	switch msg.Role {
	case model.RoleUser:
		return m.theme.UserBubble.MaxWidth(width).Render(msg.Content)
	case model.RoleAssistant:
		return m.renderMarkdown(msg.Content)
	default:
		return m.theme.HeaderSubtitle.Render(msg.Content)
	}
}

func (m *Model) renderEmptyState() string {
	return m.theme.WelcomeInfo.Render("\n  Starting quiz...")
}

func (m *Model) bubbleWidth() int {
	width := m.width - 8
	if width > 72 {
		width = 72
	}
	if width < 20 {
		width = 20
	}
	return width
}

// renderMarkdown renders assistant markdown for terminal display.
// Returns the original content if rendering fails or the renderer is
// unavailable.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
