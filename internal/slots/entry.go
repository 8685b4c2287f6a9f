// Package slots is the canonical in-memory model of reservations: open
// buckets per date, the completed history, and the set of marked days.
package slots

import (
	"strings"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
)

// Entry is one reservation inside a date's open bucket. Time is unique
// within a bucket.
type Entry struct {
	Time    calendar.TimeOfDay `json:"time"`
	Name    string             `json:"name,omitempty"`
	Service string             `json:"service,omitempty"`
}

// DoneRecord is a completed reservation.
type DoneRecord struct {
	Date    calendar.Date      `json:"date"`
	Time    calendar.TimeOfDay `json:"time"`
	Name    string             `json:"name,omitempty"`
	Service string             `json:"service,omitempty"`
	DoneAt  time.Time          `json:"doneAt"`
}

// MergePreferExisting combines two entries for the same time. Fields already
// known on existing are kept; incoming only fills the blanks.
func MergePreferExisting(existing, incoming Entry) Entry {
	merged := existing
	if merged.Time == "" {
		merged.Time = incoming.Time
	}
	if strings.TrimSpace(merged.Name) == "" {
		merged.Name = incoming.Name
	}
	if strings.TrimSpace(merged.Service) == "" {
		merged.Service = incoming.Service
	}
	return merged
}

func lessDone(a, b DoneRecord) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Time), string(b.Time)); c != 0 {
		return c
	}
	return a.DoneAt.Compare(b.DoneAt)
}
