// Package tui provides the terminal user interface for travisjr: a
// repository picker and a live build view.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"travisjr/src/provider"
)

// PickerModel lets the user choose one repository.
type PickerModel struct {
	items          []Item
	listView       View
	detailViewport viewport.Model
	header         Header
	styles         *StyleConfig

	width         int
	height        int
	ready         bool
	detailFocused bool
	searchMode    bool
	searchQuery   string

	choice *provider.Repo
}

// NewPickerModel lists owned repositories before member ones.
func NewPickerModel(username string, owned, member []provider.Repo) PickerModel {
	styles := DefaultStyles()
	items := NewItems(owned, member)

	m := PickerModel{
		items:          items,
		listView:       NewView(styles),
		detailViewport: viewport.New(0, 0),
		header:         NewHeader(fmt.Sprintf("%s: %d repositories", username, len(items)), "Repos", []string{"OWNED", "MEMBER"}, styles),
		styles:         styles,
	}
	m.listView.SetItems(items)
	return m
}

// Choice returns the selected repository once the user pressed enter.
func (m PickerModel) Choice() (provider.Repo, bool) {
	if m.choice == nil {
		return provider.Repo{}, false
	}
	return *m.choice, true
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeComponents()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if item, ok := m.listView.GetSelectedItem(); ok {
				repo := item.Repo
				m.choice = &repo
				return m, tea.Quit
			}
			return m, nil
		case "tab":
			m.header.CycleFilter()
			m.applyFilter()
			return m, nil
		case "/":
			m.searchMode = true
			m.header.SetSearch(m.searchQuery, true)
			return m, nil
		case "right", "l":
			m.detailFocused = true
			return m, nil
		case "esc", "left", "h":
			m.detailFocused = false
			return m, nil
		}

		if m.detailFocused {
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.listView, cmd = m.listView.Update(msg)
		if item, ok := m.listView.GetSelectedItem(); ok {
			m.updateDetailContent(item)
		}
		return m, cmd
	}

	return m, nil
}

func (m PickerModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searchMode = false
	case tea.KeyEsc:
		m.searchMode = false
		m.searchQuery = ""
	case tea.KeyBackspace:
		if r := []rune(m.searchQuery); len(r) > 0 {
			m.searchQuery = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	m.header.SetSearch(m.searchQuery, m.searchMode)
	m.applyFilter()
	return m, nil
}
