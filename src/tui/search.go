package tui

import (
	"strings"
)

// applyFilter filters repositories by relation and search query
func (m *PickerModel) applyFilter() {
	filter := m.header.GetFilter()

	// 1. Filter by relation
	var filtered []Item
	if filter == "ALL" {
		filtered = m.items
	} else {
		for _, item := range m.items {
			if item.Relation() == filter {
				filtered = append(filtered, item)
			}
		}
	}

	// 2. Filter by search query
	if m.searchQuery != "" {
		var searchFiltered []Item
		query := strings.ToLower(m.searchQuery)
		for _, item := range filtered {
			if strings.Contains(strings.ToLower(item.Repo.Slug()), query) ||
				strings.Contains(strings.ToLower(item.LastState()), query) {
				searchFiltered = append(searchFiltered, item)
			}
		}
		filtered = searchFiltered
	}

	m.listView.SetItems(filtered)
	// Update detail content for new selection
	if selectedItem, ok := m.listView.GetSelectedItem(); ok {
		m.updateDetailContent(selectedItem)
	} else {
		m.detailViewport.SetContent("")
	}
}
