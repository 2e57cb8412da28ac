package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// listRenderingOverhead accounts for padding added by bubbles/list and panel borders.
	// Breakdown: panel border (2) + list internal padding/margins (8) = 10 chars total.
	listRenderingOverhead = 10

	stateWidth = 7 // "errored"
)

// Delegate renders repositories as table rows.
type Delegate struct {
	NumberWidth int
	styles      *StyleConfig
}

// NewDelegate creates a new repository table delegate with default styles
func NewDelegate() Delegate {
	return NewDelegateWithStyles(DefaultStyles())
}

// NewDelegateWithStyles creates a new delegate with custom styles
func NewDelegateWithStyles(styles *StyleConfig) Delegate {
	return Delegate{
		NumberWidth: 3,
		styles:      styles,
	}
}

// SetNumberWidth sizes the build number column for the widest number.
func (d *Delegate) SetNumberWidth(widest string) {
	d.NumberWidth = VisualWidth(widest) + 1 // leading '#'
	if d.NumberWidth < 3 {
		d.NumberWidth = 3
	}
}

// Height returns the height of a list item
func (d Delegate) Height() int {
	return 1
}

// Spacing returns spacing between items
func (d Delegate) Spacing() int {
	return 0
}

// Update handles item updates
func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render renders a list item
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	number := ""
	if entry.Repo.LastBuild != nil {
		number = "#" + entry.Repo.LastBuild.Number
	}
	numberCol := fmt.Sprintf("%*s", d.NumberWidth, number)
	stateCol := TruncateAndPad(entry.LastState(), stateWidth, false)
	relCol := TruncateAndPad(entry.Relation(), 6, false)

	// Fixed columns: number + state + relation (6) + separators (9)
	fixedWidth := d.NumberWidth + stateWidth + 6 + 9
	availableWidth := m.Width() - fixedWidth - listRenderingOverhead

	var slug string
	if availableWidth > 0 {
		slug = TruncateAndPad(entry.Repo.Slug(), availableWidth, true)
	}

	stateStyle := lipgloss.NewStyle().Foreground(d.styles.StateColor(entry.LastState()))
	style := lipgloss.NewStyle().Foreground(d.styles.TextSecondary)
	if isSelected {
		style = style.Bold(true).Foreground(d.styles.PrimaryBlue).Background(d.styles.SelectedColor)
		stateStyle = stateStyle.Bold(true).Background(d.styles.SelectedColor)
	}

	fmt.Fprint(w, style.Render(numberCol+" │ ")+stateStyle.Render(stateCol)+style.Render(" │ "+relCol+" │ "+slug))
}
