package slots

import (
	"slices"
	"strings"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
)

// Status labels a row in the combined view.
type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// Row is one line of the combined open-and-done view.
type Row struct {
	Status  Status             `json:"status"`
	Date    calendar.Date      `json:"date"`
	Time    calendar.TimeOfDay `json:"time"`
	Name    string             `json:"name,omitempty"`
	Service string             `json:"service,omitempty"`
	DoneAt  *time.Time         `json:"doneAt,omitempty"`
}

// Rows returns every open entry and, when includeDone is set, every done
// record, ordered by date, time and then status with open first.
func (s *Store) Rows(includeDone bool) []Row {
	var rows []Row
	for d, bucket := range s.open {
		for _, e := range bucket {
			rows = append(rows, Row{Status: StatusOpen, Date: d, Time: e.Time, Name: e.Name, Service: e.Service})
		}
	}
	if includeDone {
		for _, rec := range s.done {
			doneAt := rec.DoneAt
			rows = append(rows, Row{
				Status:  StatusDone,
				Date:    rec.Date,
				Time:    rec.Time,
				Name:    rec.Name,
				Service: rec.Service,
				DoneAt:  &doneAt,
			})
		}
	}
	slices.SortStableFunc(rows, compareRows)
	return rows
}

// LastStatus reports, for each date with any entry, whether it still has
// open reservations (StatusOpen) or only completed ones (StatusDone).
func (s *Store) LastStatus() map[calendar.Date]Status {
	out := make(map[calendar.Date]Status, len(s.open))
	for _, rec := range s.done {
		out[rec.Date] = StatusDone
	}
	for d := range s.open {
		out[d] = StatusOpen
	}
	return out
}

func compareRows(a, b Row) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Time), string(b.Time)); c != 0 {
		return c
	}
	return statusRank(a.Status) - statusRank(b.Status)
}

func statusRank(s Status) int {
	if s == StatusOpen {
		return 0
	}
	return 1
}
