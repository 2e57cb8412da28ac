package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderDetail renders the last build summary of a repository
func (m PickerModel) renderDetail(item Item, maxWidth int) string {
	content := strings.Builder{}
	label := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Bold(true)

	header := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Render(Wrap(item.Repo.Slug(), maxWidth))
	fmt.Fprintf(&content, "%s\n\n", header)

	ci := "disabled"
	if item.Repo.Active {
		ci = "enabled"
	}
	fmt.Fprintf(&content, "%s %s\n", label.Render("Role:"), strings.ToLower(item.Relation()))
	fmt.Fprintf(&content, "%s %s\n\n", label.Render("CI:"), ci)

	b := item.Repo.LastBuild
	if b == nil {
		fmt.Fprint(&content, lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Faint(true).Render("No builds yet."))
		return content.String()
	}

	fmt.Fprintln(&content, label.Render("Last build:"))
	state := lipgloss.NewStyle().Foreground(m.styles.StateColor(b.State)).Bold(true).Render(b.State)
	fmt.Fprintf(&content, "  #%s %s\n", b.Number, state)
	if b.StartedAt != "" {
		fmt.Fprintf(&content, "  %s\n", Wrap("started "+b.StartedAt, maxWidth-2))
	}
	fmt.Fprintf(&content, "  id %d\n", b.ID)

	return content.String()
}

// updateDetailContent updates the viewport with content from the selected item
func (m *PickerModel) updateDetailContent(item Item) {
	maxWidth := m.detailViewport.Width - 2 // 1 char padding on each side
	m.detailViewport.SetContent(m.renderDetail(item, maxWidth))
}

// renderDetailPanel renders the right panel with detail viewport
func (m PickerModel) renderDetailPanel(width, height int) string {
	if _, ok := m.listView.GetSelectedItem(); ok {
		headerRow := lipgloss.NewStyle().
			Foreground(m.styles.PrimaryBlue).
			Bold(true).
			Padding(0, 1).
			Render("Last build")

		borderStyle := m.styles.BorderColor
		if m.detailFocused {
			borderStyle = m.styles.AccentBlue
		}

		return lipgloss.JoinVertical(lipgloss.Left, headerRow,
			lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(borderStyle).
				Width(width-2).
				Height(height).
				Render(m.detailViewport.View()))
	}

	// No selection - show empty state
	placeholderRow := lipgloss.NewStyle().
		Foreground(m.styles.TextSecondary).
		Padding(0, 1).
		Render(" ")

	emptyStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.BorderColor).
		Width(width-2).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(m.styles.TextSecondary).
		Faint(true)

	return lipgloss.JoinVertical(lipgloss.Left, placeholderRow, emptyStyle.Render("No matching repositories"))
}
