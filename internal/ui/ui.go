// Package ui renders the conversation for a terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/longkey1/llmchat/internal/chat"
	"github.com/longkey1/llmchat/internal/config"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtitleStyle  = lipgloss.NewStyle().Faint(true)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	attachStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	noticeTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	hintStyle      = lipgloss.NewStyle().Faint(true)
)

// Header renders the widget title bar
func Header(u config.UI) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(u.Title))
	if u.Subtitle != "" {
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(u.Subtitle))
	}
	return b.String()
}

// Message renders one log entry
func Message(m chat.Message) string {
	var b strings.Builder
	if m.IsUser() {
		b.WriteString(userStyle.Render("You>"))
	} else {
		b.WriteString(assistantStyle.Render("Assistant>"))
	}

	if m.Content != "" {
		b.WriteString(" ")
		if m.Failed {
			b.WriteString(errorStyle.Render(m.Content))
		} else {
			b.WriteString(m.Content)
		}
	}

	if m.Attachment != nil {
		b.WriteString("\n    ")
		b.WriteString(AttachmentLabel(m.Attachment.Name, m.Attachment.MediaType, len(m.Attachment.Data)))
	}
	return b.String()
}

// AttachmentLabel renders a one-line description of an image
func AttachmentLabel(name, mediaType string, size int) string {
	return attachStyle.Render(fmt.Sprintf("[%s: %s, %s]", name, mediaType, humanize.Bytes(uint64(size))))
}

// Notice renders a transient notice
func Notice(n *chat.Notice) string {
	return noticeTitle.Render(n.Title) + " " + n.Detail
}

// Hint renders secondary help text such as the input placeholder
func Hint(s string) string {
	return hintStyle.Render(s)
}
