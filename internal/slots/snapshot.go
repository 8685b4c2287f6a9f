package slots

import (
	"slices"

	"github.com/codr1/nailbook/internal/calendar"
)

// Snapshot is the plain-data form of a Store, as written to a medium.
type Snapshot struct {
	Open   map[calendar.Date][]Entry `json:"open"`
	Done   []DoneRecord              `json:"done"`
	Marked []calendar.Date           `json:"marked"`
}

// Snapshot copies the store into its plain-data form.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Open:   make(map[calendar.Date][]Entry, len(s.open)),
		Done:   slices.Clone(s.done),
		Marked: s.MarkedDays(),
	}
	for d, bucket := range s.open {
		snap.Open[d] = slices.Clone(bucket)
	}
	if snap.Done == nil {
		snap.Done = []DoneRecord{}
	}
	return snap
}

// FromSnapshot rebuilds a store, restoring bucket ordering and uniqueness
// and merging duplicate completions.
func FromSnapshot(snap Snapshot) *Store {
	s := NewStore()
	for d, entries := range snap.Open {
		s.Put(d, entries)
	}
	for _, rec := range snap.Done {
		s.AddDone(rec)
	}
	for _, d := range snap.Marked {
		s.Mark(d)
	}
	return s
}

// Replace swaps the entire contents of s for a copy of other.
func (s *Store) Replace(other *Store) {
	*s = *other.Clone()
}
