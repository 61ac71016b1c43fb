package viewsync

import (
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// ListItem is one row of the sidebar list.
type ListItem struct {
	Entity  model.Entity
	Visible bool
}

// ListModel is the sidebar list. Items are created once in name order and
// only ever shown or hidden.
type ListModel struct {
	items []ListItem
	index map[string]int
}

// NewListModel builds the list from name-sorted entities. Every item starts
// visible.
func NewListModel(entities []model.Entity) *ListModel {
	l := &ListModel{}
	l.Reset(entities)
	return l
}

// Reset rebuilds the rows after a reload. Every item starts visible.
func (l *ListModel) Reset(entities []model.Entity) {
	l.items = make([]ListItem, len(entities))
	l.index = make(map[string]int, len(entities))
	for i, e := range entities {
		l.items[i] = ListItem{Entity: e, Visible: true}
		l.index[e.Name] = i
	}
}

// SetItemVisible implements ListSink. Unknown names are ignored.
func (l *ListModel) SetItemVisible(name string, visible bool) {
	if i, ok := l.index[name]; ok {
		l.items[i].Visible = visible
	}
}

// Item returns the row for name.
func (l *ListModel) Item(name string) (ListItem, bool) {
	i, ok := l.index[name]
	if !ok {
		return ListItem{}, false
	}
	return l.items[i], true
}

// Items returns every row, visible or not, in list order.
func (l *ListModel) Items() []ListItem {
	out := make([]ListItem, len(l.items))
	copy(out, l.items)
	return out
}

// Visible returns the names of the shown rows in list order.
func (l *ListModel) Visible() []string {
	var out []string
	for _, it := range l.items {
		if it.Visible {
			out = append(out, it.Entity.Name)
		}
	}
	return out
}

// VisibleItems returns the shown rows in list order.
func (l *ListModel) VisibleItems() []ListItem {
	var out []ListItem
	for _, it := range l.items {
		if it.Visible {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the total number of rows.
func (l *ListModel) Len() int {
	return len(l.items)
}
