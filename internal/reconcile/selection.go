package reconcile

import (
	"sort"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

// SelectionSet is the set of selected selection keys. It is the only
// authority on selection; rows copy it through Apply.
type SelectionSet struct {
	keys map[string]bool
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{keys: make(map[string]bool)}
}

// Toggle flips key and returns the new state.
func (s *SelectionSet) Toggle(key string) bool {
	if s.keys[key] {
		delete(s.keys, key)
		return false
	}
	s.keys[key] = true
	return true
}

// Set forces the state of key.
func (s *SelectionSet) Set(key string, selected bool) {
	if selected {
		s.keys[key] = true
		return
	}
	delete(s.keys, key)
}

func (s *SelectionSet) IsSelected(key string) bool { return s.keys[key] }

func (s *SelectionSet) ClearAll() { s.keys = make(map[string]bool) }

func (s *SelectionSet) Count() int { return len(s.keys) }

func (s *SelectionSet) Any() bool { return len(s.keys) > 0 }

// Keys returns the selected keys in sorted order.
func (s *SelectionSet) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Apply returns a copy of rows with IsSelected re-derived from the set.
func (s *SelectionSet) Apply(rows []models.AvailabilityRow) []models.AvailabilityRow {
	out := make([]models.AvailabilityRow, len(rows))
	for i, r := range rows {
		r.IsSelected = s.keys[r.SelectionKey]
		out[i] = r
	}
	return out
}

// Selected returns the rows of the working set that are currently selected,
// in working-set order.
func (s *SelectionSet) Selected(rows []models.AvailabilityRow) []models.AvailabilityRow {
	var out []models.AvailabilityRow
	for _, r := range rows {
		if s.keys[r.SelectionKey] {
			r.IsSelected = true
			out = append(out, r)
		}
	}
	return out
}
