package slots

import (
	"slices"
	"strings"

	"github.com/codr1/nailbook/internal/calendar"
)

// Store owns the open buckets, the done history and the marked days. Every
// mutation leaves buckets sorted by time and unique by time, and never keeps
// an empty bucket around. Store is not safe for concurrent use; Session
// serialises access.
type Store struct {
	open   map[calendar.Date][]Entry
	done   []DoneRecord
	marked map[calendar.Date]struct{}
}

func NewStore() *Store {
	return &Store{
		open:   make(map[calendar.Date][]Entry),
		marked: make(map[calendar.Date]struct{}),
	}
}

// Upsert inserts entry into d's open bucket or merges it into the entry that
// already holds the same time. It returns the stored entry.
func (s *Store) Upsert(d calendar.Date, entry Entry) Entry {
	bucket := s.open[d]
	idx, found := slices.BinarySearchFunc(bucket, entry.Time, compareEntryTime)
	if found {
		bucket[idx] = MergePreferExisting(bucket[idx], entry)
		return bucket[idx]
	}
	s.open[d] = slices.Insert(bucket, idx, entry)
	return entry
}

// RemoveByTime removes and returns the entry at t. A missing entry is not an
// error. The date key disappears when its bucket becomes empty.
func (s *Store) RemoveByTime(d calendar.Date, t calendar.TimeOfDay) (Entry, bool) {
	bucket := s.open[d]
	idx, found := slices.BinarySearchFunc(bucket, t, compareEntryTime)
	if !found {
		return Entry{}, false
	}
	removed := bucket[idx]
	bucket = slices.Delete(bucket, idx, idx+1)
	if len(bucket) == 0 {
		delete(s.open, d)
	} else {
		s.open[d] = bucket
	}
	return removed, true
}

// Dedupe collapses duplicate times in d's bucket and restores ordering.
// Earlier entries win on conflicting fields.
func (s *Store) Dedupe(d calendar.Date) {
	bucket, ok := s.open[d]
	if !ok {
		return
	}
	s.setBucket(d, dedupeEntries(bucket))
}

// Put replaces d's bucket wholesale, deduplicating it on the way in.
func (s *Store) Put(d calendar.Date, entries []Entry) {
	s.setBucket(d, slices.Clone(entries))
	s.Dedupe(d)
}

func (s *Store) setBucket(d calendar.Date, bucket []Entry) {
	if len(bucket) == 0 {
		delete(s.open, d)
		return
	}
	s.open[d] = bucket
}

// Bucket returns a copy of d's open entries.
func (s *Store) Bucket(d calendar.Date) []Entry {
	return slices.Clone(s.open[d])
}

func (s *Store) Count(d calendar.Date) int {
	return len(s.open[d])
}

func (s *Store) Has(d calendar.Date, t calendar.TimeOfDay) bool {
	_, found := s.Lookup(d, t)
	return found
}

// Lookup returns the open entry at (d, t).
func (s *Store) Lookup(d calendar.Date, t calendar.TimeOfDay) (Entry, bool) {
	bucket := s.open[d]
	idx, found := slices.BinarySearchFunc(bucket, t, compareEntryTime)
	if !found {
		return Entry{}, false
	}
	return bucket[idx], true
}

// CountByDate returns the number of open entries per date.
func (s *Store) CountByDate() map[calendar.Date]int {
	counts := make(map[calendar.Date]int, len(s.open))
	for d, bucket := range s.open {
		counts[d] = len(bucket)
	}
	return counts
}

// Dates returns the dates with open entries in ascending order.
func (s *Store) Dates() []calendar.Date {
	dates := make([]calendar.Date, 0, len(s.open))
	for d := range s.open {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, calendar.Date.Compare)
	return dates
}

// AddDone records a completion. A record for the same date and time is
// merged rather than duplicated, keeping the first completion's doneAt.
func (s *Store) AddDone(rec DoneRecord) DoneRecord {
	for i, existing := range s.done {
		if existing.Date != rec.Date || existing.Time != rec.Time {
			continue
		}
		merged := MergePreferExisting(
			Entry{Time: existing.Time, Name: existing.Name, Service: existing.Service},
			Entry{Time: rec.Time, Name: rec.Name, Service: rec.Service},
		)
		s.done[i].Name = merged.Name
		s.done[i].Service = merged.Service
		return s.done[i]
	}
	idx, _ := slices.BinarySearchFunc(s.done, rec, lessDone)
	s.done = slices.Insert(s.done, idx, rec)
	return rec
}

// LookupDone returns the completion for d and t, if any.
func (s *Store) LookupDone(d calendar.Date, t calendar.TimeOfDay) (DoneRecord, bool) {
	idx := slices.IndexFunc(s.done, func(rec DoneRecord) bool {
		return rec.Date == d && rec.Time == t
	})
	if idx < 0 {
		return DoneRecord{}, false
	}
	return s.done[idx], true
}

// RemoveDone drops the completion for d and t, if any, and returns it.
func (s *Store) RemoveDone(d calendar.Date, t calendar.TimeOfDay) (DoneRecord, bool) {
	idx := slices.IndexFunc(s.done, func(rec DoneRecord) bool {
		return rec.Date == d && rec.Time == t
	})
	if idx < 0 {
		return DoneRecord{}, false
	}
	removed := s.done[idx]
	s.done = slices.Delete(s.done, idx, idx+1)
	return removed, true
}

// Done returns a copy of the history ordered by date, time and doneAt.
func (s *Store) Done() []DoneRecord {
	return slices.Clone(s.done)
}

func (s *Store) DoneOn(d calendar.Date) []DoneRecord {
	var out []DoneRecord
	for _, rec := range s.done {
		if rec.Date == d {
			out = append(out, rec)
		}
	}
	return out
}

// Mark flags d for calendar highlighting. Marks are never removed by
// lifecycle transitions.
func (s *Store) Mark(d calendar.Date) {
	s.marked[d] = struct{}{}
}

func (s *Store) IsMarked(d calendar.Date) bool {
	_, ok := s.marked[d]
	return ok
}

func (s *Store) MarkedDays() []calendar.Date {
	days := make([]calendar.Date, 0, len(s.marked))
	for d := range s.marked {
		days = append(days, d)
	}
	slices.SortFunc(days, calendar.Date.Compare)
	return days
}

// PurgeBefore drops open and done entries dated strictly before cutoff and
// returns how many were removed. Marked days are left alone.
func (s *Store) PurgeBefore(cutoff calendar.Date) int {
	removed := 0
	for d, bucket := range s.open {
		if d.Before(cutoff) {
			removed += len(bucket)
			delete(s.open, d)
		}
	}
	kept := s.done[:0]
	for _, rec := range s.done {
		if rec.Date.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.done = kept
	return removed
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	out := NewStore()
	for d, bucket := range s.open {
		out.open[d] = slices.Clone(bucket)
	}
	out.done = slices.Clone(s.done)
	for d := range s.marked {
		out.marked[d] = struct{}{}
	}
	return out
}

func compareEntryTime(e Entry, t calendar.TimeOfDay) int {
	return strings.Compare(string(e.Time), string(t))
}

// dedupeEntries sorts by time and merges duplicates, earlier entries taking
// precedence.
func dedupeEntries(entries []Entry) []Entry {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(string(a.Time), string(b.Time))
	})
	out := entries[:0]
	for _, e := range entries {
		if n := len(out); n > 0 && out[n-1].Time == e.Time {
			out[n-1] = MergePreferExisting(out[n-1], e)
			continue
		}
		out = append(out, e)
	}
	return out
}
