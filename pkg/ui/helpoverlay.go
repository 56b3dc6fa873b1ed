package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlayModel shows keyboard shortcuts help
type HelpOverlayModel struct {
	visible bool
	width   int
	height  int
	keys    KeyMap
	theme   Theme
}

// NewHelpOverlayModel creates a new help overlay
func NewHelpOverlayModel(keys KeyMap, theme Theme) HelpOverlayModel {
	return HelpOverlayModel{
		keys:  keys,
		theme: theme.withRenderer(),
	}
}

// Show makes the help overlay visible
func (m *HelpOverlayModel) Show() {
	m.visible = true
}

// Hide makes the help overlay invisible
func (m *HelpOverlayModel) Hide() {
	m.visible = false
}

// Toggle toggles visibility
func (m *HelpOverlayModel) Toggle() {
	m.visible = !m.visible
}

// IsVisible returns true if overlay is showing
func (m HelpOverlayModel) IsVisible() bool {
	return m.visible
}

// SetSize sets dimensions
func (m *HelpOverlayModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles input
func (m HelpOverlayModel) Update(msg tea.Msg) (HelpOverlayModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg.(type) {
	case tea.KeyMsg:
		// Any key closes help
		m.visible = false
	}

	return m, nil
}

// View renders the help overlay
func (m HelpOverlayModel) View() string {
	if !m.visible {
		return ""
	}

	var b strings.Builder

	titleStyle := m.theme.Renderer.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("OTP Field Help"))
	b.WriteString("\n\n")

	sectionStyle := m.theme.Renderer.NewStyle().Bold(true).Foreground(m.theme.Secondary)
	keyStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Width(14)
	descStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext)

	b.WriteString(sectionStyle.Render("NAVIGATION") + "\n")
	for _, k := range []struct{ key, desc string }{
		{m.keys.Prev.Help().Key, m.keys.Prev.Help().Desc},
		{m.keys.Next.Help().Key, m.keys.Next.Help().Desc},
		{m.keys.First.Help().Key, m.keys.First.Help().Desc},
		{m.keys.Last.Help().Key, m.keys.Last.Help().Desc},
		{"click", "focus slot"},
	} {
		b.WriteString("  " + keyStyle.Render(k.key) + descStyle.Render(k.desc) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("EDITING") + "\n")
	for _, k := range []struct{ key, desc string }{
		{"0-9 a-z", "type into slot"},
		{m.keys.Delete.Help().Key, "clear slot, move back"},
		{m.keys.Clear.Help().Key, m.keys.Clear.Help().Desc},
		{m.keys.Paste.Help().Key, "paste across slots"},
	} {
		b.WriteString("  " + keyStyle.Render(k.key) + descStyle.Render(k.desc) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("VIEW") + "\n")
	for _, k := range []struct{ key, desc string }{
		{"?", "This help (empty field)"},
		{"esc/ctrl+c", "Quit"},
	} {
		b.WriteString("  " + keyStyle.Render(k.key) + descStyle.Render(k.desc) + "\n")
	}

	b.WriteString(m.theme.RenderDivider(30) + "\n")
	hintStyle := m.theme.Renderer.NewStyle().Faint(true).Italic(true)
	b.WriteString(hintStyle.Render("[Press any key to close]"))

	boxStyle := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(1, 2)

	return boxStyle.Render(b.String())
}
