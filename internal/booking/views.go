package booking

import (
	"context"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/hours"
	"github.com/codr1/nailbook/internal/slots"
)

type OfferedSlot struct {
	Time  calendar.TimeOfDay `json:"time"`
	Taken bool               `json:"taken"`
}

// Offer is what the visitor sees after picking a date.
type Offer struct {
	Date      calendar.Date  `json:"date"`
	Class     hours.DayClass `json:"class"`
	Rule      string         `json:"rule"`
	Exclusive bool           `json:"exclusive"`
	Past      bool           `json:"past"`
	Closed    bool           `json:"closed"`
	Full      bool           `json:"full"`
	Slots     []OfferedSlot  `json:"slots"`
}

// Available returns the times that can still be reserved.
func (o Offer) Available() []calendar.TimeOfDay {
	if o.Past || o.Full {
		return nil
	}
	var out []calendar.TimeOfDay
	for _, slot := range o.Slots {
		if !slot.Taken {
			out = append(out, slot.Time)
		}
	}
	return out
}

// Offer lists d's allowed slots flagged with current occupancy. An
// exclusive day that already holds a reservation is Full.
func (s *Service) Offer(ctx context.Context, d calendar.Date) (Offer, error) {
	offer := Offer{
		Date:      d,
		Class:     s.engine.Classify(d),
		Rule:      s.engine.Describe(d),
		Exclusive: s.engine.IsExclusive(d),
		Past:      d.Before(s.Today()),
		Closed:    s.engine.IsClosed(d),
	}

	err := s.session.Read(ctx, func(store *slots.Store) error {
		allowed := s.engine.AllowedSlots(d)
		offer.Slots = make([]OfferedSlot, 0, len(allowed))
		for _, t := range allowed {
			offer.Slots = append(offer.Slots, OfferedSlot{Time: t, Taken: store.Has(d, t)})
		}
		count := store.Count(d)
		offer.Full = (offer.Exclusive && count >= 1) || (len(allowed) > 0 && countTaken(offer.Slots) == len(allowed))
		return nil
	})
	if err != nil {
		return Offer{}, err
	}
	return offer, nil
}

func countTaken(offered []OfferedSlot) int {
	n := 0
	for _, slot := range offered {
		if slot.Taken {
			n++
		}
	}
	return n
}

// MonthView feeds the calendar grid for one month.
type MonthView struct {
	Year    int                            `json:"year"`
	Month   time.Month                     `json:"month"`
	MinDate calendar.Date                  `json:"minDate"`
	Counts  map[calendar.Date]int          `json:"counts"`
	Status  map[calendar.Date]slots.Status `json:"status"`
	Marked  []calendar.Date                `json:"marked"`
}

// Month returns open counts, last status and marked days for the month,
// plus the first selectable date.
func (s *Service) Month(ctx context.Context, year int, month time.Month) (MonthView, error) {
	if year < 1 || month < time.January || month > time.December {
		return MonthView{}, fieldError("month", "year and month are out of range")
	}
	view := MonthView{
		Year:    year,
		Month:   month,
		MinDate: s.Today(),
		Counts:  make(map[calendar.Date]int),
		Status:  make(map[calendar.Date]slots.Status),
		Marked:  []calendar.Date{},
	}
	inMonth := func(d calendar.Date) bool {
		return d.Year == year && d.Month == month
	}

	err := s.session.Read(ctx, func(store *slots.Store) error {
		for d, n := range store.CountByDate() {
			if inMonth(d) {
				view.Counts[d] = n
			}
		}
		for d, st := range store.LastStatus() {
			if inMonth(d) {
				view.Status[d] = st
			}
		}
		for _, d := range store.MarkedDays() {
			if inMonth(d) {
				view.Marked = append(view.Marked, d)
			}
		}
		return nil
	})
	if err != nil {
		return MonthView{}, err
	}
	return view, nil
}
