package tui

import (
	"fmt"

	"travisjr/src/provider"
)

// Item represents a repository in the picker list.
// It wraps the domain Repo and implements bubbles/list.Item.
type Item struct {
	Repo  provider.Repo
	Owned bool
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Repo.Slug() }

// Title returns the primary text for the item (required by list.Item).
func (i Item) Title() string { return i.Repo.Slug() }

// Description returns the secondary text for the item (required by list.Item).
func (i Item) Description() string {
	if i.Repo.LastBuild == nil {
		return "no builds"
	}
	return fmt.Sprintf("#%s %s", i.Repo.LastBuild.Number, i.Repo.LastBuild.State)
}

// LastState returns the state of the last build, or "" when there is none.
func (i Item) LastState() string {
	if i.Repo.LastBuild == nil {
		return ""
	}
	return i.Repo.LastBuild.State
}

// Relation labels how the user relates to the repository.
func (i Item) Relation() string {
	if i.Owned {
		return "OWNED"
	}
	return "MEMBER"
}

// NewItems wraps owned and member repositories, owned first.
func NewItems(owned, member []provider.Repo) []Item {
	items := make([]Item, 0, len(owned)+len(member))
	for _, r := range owned {
		items = append(items, Item{Repo: r, Owned: true})
	}
	for _, r := range member {
		items = append(items, Item{Repo: r})
	}
	return items
}
