// Package lifecycle moves reservations between the open and done buckets
// and builds the admin agenda.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/booking"
	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/slots"
)

// ErrSlotTaken rejects a reopen whose slot was booked again by someone else
// after it was completed. It matches booking.ErrSlotTaken.
var ErrSlotTaken = fmt.Errorf("lifecycle: reopened %w", booking.ErrSlotTaken)

const (
	TransitionComplete = "complete"
	TransitionReopen   = "reopen"
)

type Options struct {
	Now      func() time.Time
	Location *time.Location
	// OnTransition is called with TransitionComplete or TransitionReopen
	// after each saved transition.
	OnTransition func(transition string)
}

type Manager struct {
	session      *slots.Session
	now          func() time.Time
	loc          *time.Location
	onTransition func(string)
}

func NewManager(session *slots.Session, opts Options) *Manager {
	m := &Manager{
		session:      session,
		now:          opts.Now,
		loc:          opts.Location,
		onTransition: opts.OnTransition,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	return m
}

// Complete moves the open entry at (d, t) to the done history, carrying its
// name and service. Completing an entry that is no longer open still
// succeeds; a repeated completion merges into the existing record.
func (m *Manager) Complete(ctx context.Context, d calendar.Date, t calendar.TimeOfDay) (slots.DoneRecord, error) {
	var rec slots.DoneRecord
	err := m.session.Update(ctx, func(store *slots.Store) error {
		removed, _ := store.RemoveByTime(d, t)
		rec = store.AddDone(slots.DoneRecord{
			Date:    d,
			Time:    t,
			Name:    removed.Name,
			Service: removed.Service,
			DoneAt:  m.now().UTC(),
		})
		return nil
	})
	if err != nil {
		return slots.DoneRecord{}, err
	}
	m.record(ctx, TransitionComplete, d, t)
	return rec, nil
}

// Reopen puts (d, t) back into the open bucket and drops its done record.
// A non-blank name overrides the one kept in the done record. When the slot
// has meanwhile been booked under another name, Reopen fails with
// ErrSlotTaken and leaves both buckets untouched.
func (m *Manager) Reopen(ctx context.Context, d calendar.Date, t calendar.TimeOfDay, name string) (slots.Entry, error) {
	var entry slots.Entry
	err := m.session.Update(ctx, func(store *slots.Store) error {
		done, _ := store.LookupDone(d, t)
		incoming := slots.Entry{Time: t, Name: strings.TrimSpace(name), Service: done.Service}
		if incoming.Name == "" {
			incoming.Name = done.Name
		}

		if current, ok := store.Lookup(d, t); ok {
			held := strings.TrimSpace(current.Name)
			if held != "" && incoming.Name != "" && !strings.EqualFold(held, incoming.Name) {
				return ErrSlotTaken
			}
			store.RemoveByTime(d, t)
			incoming = slots.MergePreferExisting(incoming, current)
		}

		store.RemoveDone(d, t)
		entry = store.Upsert(d, incoming)
		return nil
	})
	if err != nil {
		return slots.Entry{}, err
	}
	m.record(ctx, TransitionReopen, d, t)
	return entry, nil
}

func (m *Manager) record(ctx context.Context, transition string, d calendar.Date, t calendar.TimeOfDay) {
	log.Ctx(ctx).Info().
		Str("component", "lifecycle").
		Str("transition", transition).
		Str("date", d.String()).
		Str("time", t.String()).
		Msg("Reservation transitioned")
	if m.onTransition != nil {
		m.onTransition(transition)
	}
}
