package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderListPanel renders the left panel with the repository list
func (m PickerModel) renderListPanel(width, height int) string {
	// Note: list size is set in resizeComponents(), not here during render

	listPanel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.BorderColor).
		Width(width - 2).
		Height(height).
		Render(m.listView.Render())

	// Add column headers
	delegate := m.listView.GetDelegate()
	numberHeader := fmt.Sprintf("%*s", delegate.NumberWidth, "#")

	// Truncate to width-4 to account for padding (2 chars)
	headerText := fmt.Sprintf("%s │ %s │ %s │ Repository", numberHeader, TruncateAndPad("State", stateWidth, false), "Role  ")
	truncatedHeaderText := Truncate(headerText, width-4, true)
	headerRow := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Width(width-2).
		Padding(0, 1).
		Render(truncatedHeaderText)

	return lipgloss.JoinVertical(lipgloss.Left, headerRow, listPanel)
}
