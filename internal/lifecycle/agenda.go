package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/slots"
)

type FilterKind string

const (
	FilterAll      FilterKind = "all"
	FilterToday    FilterKind = "today"
	FilterTomorrow FilterKind = "tomorrow"
	FilterWeekend  FilterKind = "weekend"
	FilterDate     FilterKind = "date"
)

type Filter struct {
	Kind        FilterKind
	Date        calendar.Date
	IncludeDone bool
}

// ParseFilter reads the admin listing filter. An empty kind means all; a
// kind that parses as a date selects that date.
func ParseFilter(kind, date string, includeDone bool) (Filter, error) {
	f := Filter{Kind: FilterKind(strings.ToLower(strings.TrimSpace(kind))), IncludeDone: includeDone}
	switch f.Kind {
	case "":
		f.Kind = FilterAll
	case FilterAll, FilterToday, FilterTomorrow, FilterWeekend:
	case FilterDate:
		d, err := calendar.ParseDate(date)
		if err != nil {
			return Filter{}, fmt.Errorf("filter date: %w", err)
		}
		f.Date = d
	default:
		d, err := calendar.ParseDate(string(f.Kind))
		if err != nil {
			return Filter{}, fmt.Errorf("unknown filter %q", kind)
		}
		f.Kind = FilterDate
		f.Date = d
	}
	return f, nil
}

func (f Filter) matches(d, today calendar.Date) bool {
	switch f.Kind {
	case FilterToday:
		return d == today
	case FilterTomorrow:
		return d == today.AddDays(1)
	case FilterWeekend:
		return d.IsWeekend()
	case FilterDate:
		return d == f.Date
	}
	return true
}

type Day struct {
	Date  calendar.Date `json:"date"`
	Label string        `json:"label"`
	Open  []slots.Row   `json:"open"`
	Done  []slots.Row   `json:"done"`
}

type Agenda struct {
	Today     calendar.Date   `json:"today"`
	Days      []Day           `json:"days"`
	OpenDates []calendar.Date `json:"openDates"`
	OpenCount int             `json:"openCount"`
	DoneCount int             `json:"doneCount"`
}

// Rows returns the combined view restricted by f.
func (m *Manager) Rows(ctx context.Context, f Filter) ([]slots.Row, error) {
	var rows []slots.Row
	err := m.session.Read(ctx, func(store *slots.Store) error {
		rows = m.filterRows(store, f)
		return nil
	})
	return rows, err
}

// Agenda groups the filtered rows by day. OpenDates always lists every date
// with open entries, regardless of f, for the date picker.
func (m *Manager) Agenda(ctx context.Context, f Filter) (Agenda, error) {
	agenda := Agenda{Today: m.today(), Days: []Day{}}
	err := m.session.Read(ctx, func(store *slots.Store) error {
		agenda.OpenDates = store.Dates()
		for _, row := range m.filterRows(store, f) {
			n := len(agenda.Days)
			if n == 0 || agenda.Days[n-1].Date != row.Date {
				agenda.Days = append(agenda.Days, Day{Date: row.Date, Label: row.Date.Label(), Open: []slots.Row{}, Done: []slots.Row{}})
				n++
			}
			day := &agenda.Days[n-1]
			if row.Status == slots.StatusOpen {
				day.Open = append(day.Open, row)
				agenda.OpenCount++
			} else {
				day.Done = append(day.Done, row)
				agenda.DoneCount++
			}
		}
		return nil
	})
	if err != nil {
		return Agenda{}, err
	}
	return agenda, nil
}

func (m *Manager) filterRows(store *slots.Store, f Filter) []slots.Row {
	today := m.today()
	var out []slots.Row
	for _, row := range store.Rows(f.IncludeDone) {
		if f.matches(row.Date, today) {
			out = append(out, row)
		}
	}
	return out
}

func (m *Manager) today() calendar.Date {
	return calendar.Today(m.now(), m.loc)
}
