package components

import (
	"github.com/avigneault/groundwork/internal/model"
)

// ItemEntry pairs an item with its display state. Running and Done are
// view-level states; Result is only meaningful once Done is set.
type ItemEntry struct {
	ID      string
	Running bool
	Done    bool
	Result  model.ItemResult
}

// ItemList keeps entries in declaration order for rendering.
type ItemList struct {
	entries []ItemEntry
}

// NewItemList builds the ordered entry list from the view's item map.
func NewItemList(order []string, items map[string]ItemEntry) ItemList {
	entries := make([]ItemEntry, 0, len(order))
	for _, id := range order {
		entry := items[id]
		entry.ID = id
		entries = append(entries, entry)
	}
	return ItemList{entries: entries}
}

// Entries returns a copy of the ordered entries.
func (l ItemList) Entries() []ItemEntry {
	clone := make([]ItemEntry, len(l.entries))
	copy(clone, l.entries)
	return clone
}
