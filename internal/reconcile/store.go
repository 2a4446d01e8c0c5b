// Package reconcile owns the working set of availability rows for one
// session and the operator's selection over it.
package reconcile

import (
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/keys"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

// Merge returns existing plus every incoming row whose selection key is not
// already present. The first row seen for a key is kept, including within
// the incoming batch itself, so merging the same batch twice is a no-op.
// Neither input is modified.
func Merge(existing, incoming []models.AvailabilityRow) []models.AvailabilityRow {
	out := make([]models.AvailabilityRow, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, r := range existing {
		if _, ok := seen[r.SelectionKey]; ok {
			continue
		}
		seen[r.SelectionKey] = struct{}{}
		out = append(out, r)
	}
	for _, r := range incoming {
		if _, ok := seen[r.SelectionKey]; ok {
			continue
		}
		seen[r.SelectionKey] = struct{}{}
		out = append(out, r)
	}
	return out
}

// RemoveCrm drops rows that belong to the given date key. It mirrors an
// operation the working set supports but the session never calls: results
// are only ever added, or cleared wholesale.
func RemoveCrm(rows []models.AvailabilityRow, dateKey string) []models.AvailabilityRow {
	out := make([]models.AvailabilityRow, 0, len(rows))
	for _, r := range rows {
		if r.DateKey == dateKey {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Store is the working set. It is not safe for concurrent use; the search
// session serialises every call.
type Store struct {
	rows []models.AvailabilityRow
}

func NewStore() *Store {
	return &Store{}
}

// Merge adds incoming rows, tagging any that arrive without keys, and
// reports how many were new.
func (s *Store) Merge(incoming []models.AvailabilityRow) int {
	tagged := make([]models.AvailabilityRow, len(incoming))
	copy(tagged, incoming)
	for i := range tagged {
		if tagged[i].SelectionKey == "" {
			keys.Tag(&tagged[i])
		}
		tagged[i].IsSelected = false
	}
	before := len(s.rows)
	s.rows = Merge(s.rows, tagged)
	return len(s.rows) - before
}

// Rows returns a copy of the working set in insertion order.
func (s *Store) Rows() []models.AvailabilityRow {
	out := make([]models.AvailabilityRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Lookup finds a row by selection key.
func (s *Store) Lookup(selectionKey string) (models.AvailabilityRow, bool) {
	for _, r := range s.rows {
		if r.SelectionKey == selectionKey {
			return r, true
		}
	}
	return models.AvailabilityRow{}, false
}

func (s *Store) Len() int { return len(s.rows) }

// Reset empties the working set.
func (s *Store) Reset() { s.rows = nil }

// Restore replaces the working set, e.g. from a snapshot.
func (s *Store) Restore(rows []models.AvailabilityRow) {
	s.rows = nil
	s.Merge(rows)
}
