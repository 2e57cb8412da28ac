package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Header represents the top status bar component.
type Header struct {
	status         string
	filterLabel    string
	selectedFilter string
	filters        []string
	searchQuery    string
	searchMode     bool
	searchable     bool
	styles         *StyleConfig
}

// NewHeader creates a header with a cycling filter and a search box.
func NewHeader(status, filterLabel string, filters []string, styles *StyleConfig) Header {
	return Header{
		status:         status,
		filterLabel:    filterLabel,
		selectedFilter: "ALL",
		filters:        filters,
		searchable:     true,
		styles:         styles,
	}
}

// NewStatusHeader creates a header that only shows a status line.
func NewStatusHeader(status string, styles *StyleConfig) Header {
	return Header{status: status, styles: styles}
}

// SetStatus replaces the status text.
func (h *Header) SetStatus(status string) {
	h.status = status
}

// SetFilter sets the current filter
func (h *Header) SetFilter(filter string) {
	h.selectedFilter = filter
}

// GetFilter returns the current filter
func (h Header) GetFilter() string {
	return h.selectedFilter
}

// CycleFilter cycles to the next filter
func (h *Header) CycleFilter() {
	filters := append([]string{"ALL"}, h.filters...)
	currentIndex := 0
	for i, f := range filters {
		if f == h.selectedFilter {
			currentIndex = i
			break
		}
	}
	nextIndex := (currentIndex + 1) % len(filters)
	h.selectedFilter = filters[nextIndex]
}

// SetSearch updates the search state
func (h *Header) SetSearch(query string, mode bool) {
	h.searchQuery = query
	h.searchMode = mode
}

// Render renders the header
func (h Header) Render(width int) string {
	statusStyle := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 2)

	sections := []string{statusStyle.Render(h.status)}

	if h.filterLabel != "" {
		filterStyle := lipgloss.NewStyle().
			Foreground(h.styles.PrimaryBlue).
			Bold(true).
			Padding(0, 2)
		sections = append(sections, filterStyle.Render(fmt.Sprintf("%s: %s", h.filterLabel, h.selectedFilter)))
	}

	if h.searchable {
		var searchText string
		if h.searchMode {
			searchText = fmt.Sprintf("Search: %s█", h.searchQuery)
		} else if h.searchQuery != "" {
			searchText = fmt.Sprintf("Search: %s", h.searchQuery)
		} else {
			searchText = "[/] to search"
		}

		searchStyle := lipgloss.NewStyle().
			Foreground(h.styles.TextSecondary).
			Padding(0, 2)
		if h.searchMode {
			searchStyle = searchStyle.Foreground(h.styles.PrimaryBlue)
		}
		sections = append(sections, searchStyle.Render(searchText))
	}

	leftSection := lipgloss.JoinHorizontal(lipgloss.Left, sections...)
	if lipgloss.Width(leftSection) > width {
		leftSection = FitLine(leftSection, width)
	}

	// Create header bar with background
	headerStyle := lipgloss.NewStyle().
		Background(h.styles.DarkBackground).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		Width(width)

	spacerWidth := width - lipgloss.Width(leftSection)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Left, leftSection, spacer)

	return headerStyle.Render(content)
}
