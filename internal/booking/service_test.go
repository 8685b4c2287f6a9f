package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/hours"
	"github.com/codr1/nailbook/internal/messaging"
	"github.com/codr1/nailbook/internal/slots"
)

var (
	monday   = calendar.MustParseDate("2025-08-18")
	saturday = calendar.MustParseDate("2025-08-23")
	// Sunday afternoon, the day before monday.
	clockNow = time.Date(2025, 8, 17, 15, 0, 0, 0, time.UTC)
)

type fakeDispatcher struct {
	facts []messaging.Fact
	err   error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, fact messaging.Fact) (messaging.Dispatch, error) {
	f.facts = append(f.facts, fact)
	if f.err != nil {
		return messaging.Dispatch{}, f.err
	}
	return messaging.Dispatch{URL: "https://wa.me/5511987654321?text=x", Text: "x"}, nil
}

type fixture struct {
	svc        *Service
	repo       *slots.MemoryRepository
	session    *slots.Session
	dispatcher *fakeDispatcher
	outcomes   []string
}

func newFixture(t *testing.T, policy hours.Policy) *fixture {
	t.Helper()
	f := &fixture{
		repo:       slots.NewMemoryRepository(nil),
		dispatcher: &fakeDispatcher{},
	}
	f.session = slots.NewSession(f.repo)
	svc, err := NewService(Config{
		Engine:     hours.MustEngine(policy),
		Session:    f.session,
		Dispatcher: f.dispatcher,
		Clock:      FixedClock(clockNow),
		Location:   time.UTC,
		Services:   []string{"Manicure", "Pedicure"},
		OnOutcome:  func(outcome string) { f.outcomes = append(f.outcomes, outcome) },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) bucket(t *testing.T, d calendar.Date) []slots.Entry {
	t.Helper()
	var out []slots.Entry
	require.NoError(t, f.session.Read(context.Background(), func(s *slots.Store) error {
		out = s.Bucket(d)
		return nil
	}))
	return out
}

func TestWeekdayIsExclusive(t *testing.T) {
	f := newFixture(t, hours.DefaultPolicy())
	ctx := context.Background()

	conf, err := f.svc.Reserve(ctx, Request{Date: monday, Time: "18:00", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "18/08/2025", conf.DateLabel)
	assert.Equal(t, "18:00", conf.TimeLabel)
	assert.Equal(t, "Manicure", conf.Service)
	assert.NotEmpty(t, conf.Dispatch.URL)

	_, err = f.svc.Reserve(ctx, Request{Date: monday, Time: "18:00", Name: "Bea"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.ErrorIs(t, err, ErrDayFull)

	assert.Equal(t, []slots.Entry{{Time: "18:00", Name: "Ana", Service: "Manicure"}}, f.bucket(t, monday))
	assert.Equal(t, []string{"created", "day_full"}, f.outcomes)
}

func TestExclusiveDayRejectsAnyTime(t *testing.T) {
	policy := hours.DefaultPolicy()
	policy.Weekday = hours.DayRule{Kind: hours.KindFixed, Times: []string{"18:00", "19:00"}, Exclusive: true}
	f := newFixture(t, policy)
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, Request{Date: monday, Time: "19:00", Name: "Ana"})
	require.NoError(t, err)

	for _, tm := range []calendar.TimeOfDay{"18:00", "19:00"} {
		_, err := f.svc.Reserve(ctx, Request{Date: monday, Time: tm, Name: "Bea"})
		assert.ErrorIs(t, err, ErrDayFull, "time %s", tm)
	}
	assert.Len(t, f.bucket(t, monday), 1)
}

func TestWeekendHourlyLadder(t *testing.T) {
	f := newFixture(t, hours.DefaultPolicy())
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, Request{Date: saturday, Time: "14:00", Name: "Ana"})
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, Request{Date: saturday, Time: "10:00", Name: "Bia"})
	require.NoError(t, err)

	bucket := f.bucket(t, saturday)
	require.Len(t, bucket, 2)
	assert.Equal(t, calendar.TimeOfDay("10:00"), bucket[0].Time)
	assert.Equal(t, calendar.TimeOfDay("14:00"), bucket[1].Time)

	_, err = f.svc.Reserve(ctx, Request{Date: saturday, Time: "14:00", Name: "Carla"})
	assert.ErrorIs(t, err, ErrSlotTaken)

	view, err := f.svc.Month(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Counts[saturday])
}

func TestReserveRuleRejections(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"past date", Request{Date: calendar.MustParseDate("2025-08-16"), Time: "10:00", Name: "Ana"}, ErrPastDate},
		{"weekday off-policy time", Request{Date: monday, Time: "10:00", Name: "Ana"}, ErrDisallowedTime},
		{"weekend outside ladder", Request{Date: saturday, Time: "19:00", Name: "Ana"}, ErrDisallowedTime},
		{"weekend half hour", Request{Date: saturday, Time: "10:30", Name: "Ana"}, ErrDisallowedTime},
		{"blank name", Request{Date: saturday, Time: "10:00", Name: "  "}, ErrInvalidInput},
		{"unknown service", Request{Date: saturday, Time: "10:00", Name: "Ana", Service: "Massagem"}, ErrInvalidInput},
		{"bad phone", Request{Date: saturday, Time: "10:00", Name: "Ana", Phone: "12"}, ErrInvalidInput},
		{"missing date", Request{Time: "10:00", Name: "Ana"}, ErrInvalidInput},
		{"past date checked before fields", Request{Date: calendar.MustParseDate("2025-08-16"), Time: "10:00", Name: " "}, ErrPastDate},
		{"disallowed time checked before fields", Request{Date: monday, Time: "10:00", Service: "Massagem"}, ErrDisallowedTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, hours.DefaultPolicy())
			_, err := f.svc.Reserve(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsRejection(err))
			assert.Equal(t, 0, f.repo.Saves(), "rejections never write")
			assert.Empty(t, f.dispatcher.facts)
		})
	}
}

func TestTodayIsStillBookable(t *testing.T) {
	f := newFixture(t, hours.DefaultPolicy())
	_, err := f.svc.Reserve(context.Background(), Request{Date: calendar.MustParseDate("2025-08-17"), Time: "08:00", Name: "Ana"})
	require.NoError(t, err)
}

func TestReserveNormalisesRequest(t *testing.T) {
	f := newFixture(t, hours.DefaultPolicy())
	_, err := f.svc.Reserve(context.Background(), Request{
		Date:    saturday,
		Time:    "09:00",
		Name:    "  Ana  ",
		Service: "pedicure",
		Phone:   "(11) 98765-4321",
		Notes:   "  francesinha ",
	})
	require.NoError(t, err)

	require.Len(t, f.dispatcher.facts, 1)
	fact := f.dispatcher.facts[0]
	assert.Equal(t, "Ana", fact.Name)
	assert.Equal(t, "Pedicure", fact.Service)
	assert.Equal(t, "+5511987654321", fact.Phone)
	assert.Equal(t, "francesinha", fact.Notes)

	var marked bool
	require.NoError(t, f.session.Read(context.Background(), func(s *slots.Store) error {
		marked = s.IsMarked(saturday)
		return nil
	}))
	assert.True(t, marked)
}

func TestDispatchFailureKeepsReservation(t *testing.T) {
	f := newFixture(t, hours.DefaultPolicy())
	f.dispatcher.err = errors.New("no link for you")

	conf, err := f.svc.Reserve(context.Background(), Request{Date: saturday, Time: "09:00", Name: "Ana"})
	require.NoError(t, err)
	assert.Empty(t, conf.Dispatch.URL)
	assert.Len(t, f.bucket(t, saturday), 1)
}

func TestOffer(t *testing.T) {
	f := newFixture(t, hours.DefaultPolicy())
	ctx := context.Background()

	offer, err := f.svc.Offer(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, hours.ClassWeekday, offer.Class)
	assert.True(t, offer.Exclusive)
	assert.False(t, offer.Full)
	assert.Equal(t, []calendar.TimeOfDay{"18:00"}, offer.Available())

	_, err = f.svc.Reserve(ctx, Request{Date: monday, Time: "18:00", Name: "Ana"})
	require.NoError(t, err)
	offer, err = f.svc.Offer(ctx, monday)
	require.NoError(t, err)
	assert.True(t, offer.Full)
	assert.Empty(t, offer.Available())

	_, err = f.svc.Reserve(ctx, Request{Date: saturday, Time: "08:00", Name: "Bia"})
	require.NoError(t, err)
	offer, err = f.svc.Offer(ctx, saturday)
	require.NoError(t, err)
	assert.Equal(t, hours.ClassWeekend, offer.Class)
	assert.Len(t, offer.Slots, 11)
	assert.True(t, offer.Slots[0].Taken)
	assert.Len(t, offer.Available(), 10)

	past, err := f.svc.Offer(ctx, calendar.MustParseDate("2025-08-10"))
	require.NoError(t, err)
	assert.True(t, past.Past)
	assert.Empty(t, past.Available())
}

func TestMonthView(t *testing.T) {
	f := newFixture(t, hours.DefaultPolicy())
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, Request{Date: monday, Time: "18:00", Name: "Ana"})
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, Request{Date: calendar.MustParseDate("2025-09-06"), Time: "10:00", Name: "Bia"})
	require.NoError(t, err)

	view, err := f.svc.Month(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParseDate("2025-08-17"), view.MinDate)
	assert.Equal(t, map[calendar.Date]int{monday: 1}, view.Counts)
	assert.Equal(t, slots.StatusOpen, view.Status[monday])
	assert.Equal(t, []calendar.Date{monday}, view.Marked)

	_, err = f.svc.Month(ctx, 2025, 13)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "slot_taken", Code(ErrSlotTaken))
	assert.Equal(t, "invalid_input", Code(fieldError("name", "x")))
	assert.Equal(t, "", Code(errors.New("disk full")))
	assert.False(t, IsRejection(nil))

	var fe *FieldError
	require.ErrorAs(t, fieldError("phone", "bad"), &fe)
	assert.Equal(t, "phone", fe.Field)
}
