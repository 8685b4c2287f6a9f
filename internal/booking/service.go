// Package booking validates a visitor's choice of date and time against the
// business-hours rules and current occupancy, and records the reservation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/hours"
	"github.com/codr1/nailbook/internal/messaging"
	"github.com/codr1/nailbook/internal/slots"
)

const DefaultService = "Manicure"

const (
	maxNameLength  = 80
	maxNotesLength = 500
)

type Config struct {
	Engine     *hours.Engine
	Session    *slots.Session
	Dispatcher messaging.Dispatcher
	Clock      Clock
	Location   *time.Location
	// Services restricts the accepted service names. The first one is used
	// when a request leaves the service blank.
	Services    []string
	PhoneRegion string
	// OnOutcome receives "created" or a rejection code after every Reserve.
	OnOutcome func(outcome string)
}

type Service struct {
	engine     *hours.Engine
	session    *slots.Session
	dispatcher messaging.Dispatcher
	clock      Clock
	loc        *time.Location
	services   []string
	region     string
	onOutcome  func(string)
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Engine == nil {
		return nil, errors.New("booking: engine is required")
	}
	if cfg.Session == nil {
		return nil, errors.New("booking: session is required")
	}
	s := &Service{
		engine:     cfg.Engine,
		session:    cfg.Session,
		dispatcher: cfg.Dispatcher,
		clock:      cfg.Clock,
		loc:        cfg.Location,
		services:   slices.Clone(cfg.Services),
		region:     cfg.PhoneRegion,
		onOutcome:  cfg.OnOutcome,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if len(s.services) == 0 {
		s.services = []string{DefaultService}
	}
	if s.region == "" {
		s.region = messaging.DefaultRegion
	}
	return s, nil
}

// Today is the current local day.
func (s *Service) Today() calendar.Date {
	return calendar.Today(s.clock.Now(), s.loc)
}

// Services lists the accepted service names.
func (s *Service) Services() []string {
	return slices.Clone(s.services)
}

type Request struct {
	Date    calendar.Date
	Time    calendar.TimeOfDay
	Name    string
	Service string
	Phone   string
	Notes   string
}

type Confirmation struct {
	Date      calendar.Date      `json:"date"`
	Time      calendar.TimeOfDay `json:"time"`
	DateLabel string             `json:"dateLabel"`
	TimeLabel string             `json:"timeLabel"`
	Service   string             `json:"service"`
	Dispatch  messaging.Dispatch `json:"dispatch"`
}

// Reserve validates req and, when every check passes, stores the
// reservation and marks its day. The messaging hand-off happens after the
// state is saved; a hand-off failure is logged and leaves the reservation in
// place.
func (s *Service) Reserve(ctx context.Context, req Request) (Confirmation, error) {
	conf, err := s.reserve(ctx, req)
	if s.onOutcome != nil {
		outcome := Code(err)
		switch {
		case err == nil:
			outcome = "created"
		case outcome == "":
			outcome = "error"
		}
		s.onOutcome(outcome)
	}
	return conf, err
}

func (s *Service) reserve(ctx context.Context, req Request) (Confirmation, error) {
	logger := log.Ctx(ctx)

	if req.Date.IsZero() {
		return Confirmation{}, fieldError("date", "date is required")
	}
	if req.Time == "" {
		return Confirmation{}, fieldError("time", "time is required")
	}
	if err := s.checkRules(req.Date, req.Time); err != nil {
		return Confirmation{}, err
	}
	req, err := s.clean(req)
	if err != nil {
		return Confirmation{}, err
	}

	err = s.session.Update(ctx, func(store *slots.Store) error {
		if err := s.checkOccupancy(store, req.Date, req.Time); err != nil {
			return err
		}
		store.Upsert(req.Date, slots.Entry{Time: req.Time, Name: req.Name, Service: req.Service})
		store.Mark(req.Date)
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			logger.Info().
				Str("component", "booking").
				Str("date", req.Date.String()).
				Str("time", req.Time.String()).
				Err(err).
				Msg("Booking rejected")
		}
		return Confirmation{}, err
	}

	logger.Info().
		Str("component", "booking").
		Str("date", req.Date.String()).
		Str("time", req.Time.String()).
		Str("service", req.Service).
		Msg("Booking created")

	conf := Confirmation{
		Date:      req.Date,
		Time:      req.Time,
		DateLabel: req.Date.Label(),
		TimeLabel: req.Time.String(),
		Service:   req.Service,
	}
	if s.dispatcher != nil {
		dispatch, err := s.dispatcher.Dispatch(ctx, messaging.Fact{
			Date:    req.Date,
			Time:    req.Time,
			Name:    req.Name,
			Service: req.Service,
			Phone:   req.Phone,
			Notes:   req.Notes,
		})
		if err != nil {
			logger.Error().Err(err).Str("component", "booking").Msg("Failed to build booking hand-off")
		} else {
			conf.Dispatch = dispatch
		}
	}
	return conf, nil
}

func (s *Service) clean(req Request) (Request, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return req, fieldError("name", "name is required")
	}
	if len([]rune(req.Name)) > maxNameLength {
		return req, fieldError("name", fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}

	req.Service = strings.TrimSpace(req.Service)
	if req.Service == "" {
		req.Service = s.services[0]
	}
	idx := slices.IndexFunc(s.services, func(name string) bool {
		return strings.EqualFold(name, req.Service)
	})
	if idx < 0 {
		return req, fieldError("service", "service is not offered")
	}
	req.Service = s.services[idx]

	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone != "" {
		phone, err := messaging.NormalizePhone(req.Phone, s.region)
		if err != nil {
			return req, fieldError("phone", "phone number is not valid")
		}
		req.Phone = phone
	}

	req.Notes = strings.TrimSpace(req.Notes)
	if len([]rune(req.Notes)) > maxNotesLength {
		return req, fieldError("notes", fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	return req, nil
}

func (s *Service) checkRules(d calendar.Date, t calendar.TimeOfDay) error {
	if d.Before(s.Today()) {
		return ErrPastDate
	}
	if !s.engine.IsAllowed(d, t) {
		return ErrDisallowedTime
	}
	return nil
}

func (s *Service) checkOccupancy(store *slots.Store, d calendar.Date, t calendar.TimeOfDay) error {
	if s.engine.IsExclusive(d) && store.Count(d) >= 1 {
		return ErrDayFull
	}
	if store.Has(d, t) {
		return ErrSlotTaken
	}
	return nil
}
