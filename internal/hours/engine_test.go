package hours

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr1/nailbook/internal/calendar"
)

var (
	monday   = calendar.MustParseDate("2025-08-18")
	saturday = calendar.MustParseDate("2025-08-23")
	sunday   = calendar.MustParseDate("2025-08-24")
)

func times(raw ...string) []calendar.TimeOfDay {
	out := make([]calendar.TimeOfDay, len(raw))
	for i, r := range raw {
		out[i] = calendar.TimeOfDay(r)
	}
	return out
}

func TestDefaultPolicy_WeekdaySingleSlot(t *testing.T) {
	engine := MustEngine(DefaultPolicy())

	assert.Equal(t, times("18:00"), engine.AllowedSlots(monday))
	assert.Equal(t, ClassWeekday, engine.Classify(monday))
	assert.True(t, engine.IsExclusive(monday))
	assert.True(t, engine.IsAllowed(monday, "18:00"))
	assert.False(t, engine.IsAllowed(monday, "18:30"))
	assert.False(t, engine.IsAllowed(monday, "10:00"))
}

func TestDefaultPolicy_WeekendHourlyLadder(t *testing.T) {
	engine := MustEngine(DefaultPolicy())

	want := times("08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00", "18:00")
	assert.Equal(t, want, engine.AllowedSlots(saturday))
	assert.Equal(t, want, engine.AllowedSlots(sunday))
	assert.Equal(t, ClassWeekend, engine.Classify(sunday))
	assert.False(t, engine.IsExclusive(saturday))
	assert.True(t, engine.IsAllowed(saturday, "08:00"))
	assert.False(t, engine.IsAllowed(saturday, "07:00"))
	assert.False(t, engine.IsAllowed(saturday, "10:30"))
	assert.False(t, engine.IsAllowed(saturday, "19:00"))
}

func TestAllowedSlotsReturnsCopy(t *testing.T) {
	engine := MustEngine(DefaultPolicy())

	slots := engine.AllowedSlots(monday)
	slots[0] = "03:00"
	assert.Equal(t, times("18:00"), engine.AllowedSlots(monday))
}

func TestThresholdPolicy(t *testing.T) {
	engine := MustEngine(ThresholdPolicy())

	assert.Equal(t, times("18:00", "19:00", "20:00"), engine.AllowedSlots(monday))
	assert.False(t, engine.IsExclusive(monday))

	sat := engine.AllowedSlots(saturday)
	require.NotEmpty(t, sat)
	assert.Equal(t, calendar.TimeOfDay("13:00"), sat[0])
	assert.False(t, engine.IsAllowed(saturday, "12:00"))

	sun := engine.AllowedSlots(sunday)
	assert.Equal(t, calendar.TimeOfDay("08:00"), sun[0])
	assert.Equal(t, calendar.TimeOfDay("20:00"), sun[len(sun)-1])
}

func TestThresholdDefaultsEndOfDay(t *testing.T) {
	engine := MustEngine(Policy{
		Weekday: DayRule{Kind: KindThreshold, Start: "21:00", StepMinutes: 60},
		Weekend: DayRule{Kind: KindClosed},
	})

	assert.Equal(t, times("21:00", "22:00", "23:00"), engine.AllowedSlots(monday))
	assert.True(t, engine.IsClosed(saturday))
	assert.Empty(t, engine.AllowedSlots(saturday))
}

func TestFixedRuleSortsAndDedupes(t *testing.T) {
	engine := MustEngine(Policy{
		Weekday: DayRule{Kind: KindFixed, Times: []string{"18:30", "9:00", "18:30"}},
		Weekend: DayRule{Kind: KindLadder, Start: "08:00", End: "09:00", StepMinutes: 30},
	})

	assert.Equal(t, times("09:00", "18:30"), engine.AllowedSlots(monday))
	assert.Equal(t, times("08:00", "08:30", "09:00"), engine.AllowedSlots(saturday))
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
	}{
		{name: "missing_kind", policy: Policy{Weekday: DayRule{}, Weekend: DayRule{Kind: KindClosed}}},
		{name: "unknown_kind", policy: Policy{Weekday: DayRule{Kind: "hourly"}, Weekend: DayRule{Kind: KindClosed}}},
		{name: "fixed_without_times", policy: Policy{Weekday: DayRule{Kind: KindFixed}, Weekend: DayRule{Kind: KindClosed}}},
		{name: "ladder_without_end", policy: Policy{Weekday: DayRule{Kind: KindLadder, Start: "08:00"}, Weekend: DayRule{Kind: KindClosed}}},
		{name: "end_before_start", policy: Policy{Weekday: DayRule{Kind: KindLadder, Start: "18:00", End: "08:00"}, Weekend: DayRule{Kind: KindClosed}}},
		{name: "bad_override", policy: Policy{
			Weekday:   DayRule{Kind: KindClosed},
			Weekend:   DayRule{Kind: KindClosed},
			Overrides: map[string]DayRule{"sabado": {Kind: KindClosed}},
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewEngine(test.policy)
			assert.Error(t, err)
		})
	}
}

func TestDescribe(t *testing.T) {
	engine := MustEngine(DefaultPolicy())
	assert.Equal(t, "dia útil → único 18:00", engine.Describe(monday))
	assert.Equal(t, "fim de semana → 08:00–18:00", engine.Describe(saturday))

	alt := MustEngine(ThresholdPolicy())
	assert.Equal(t, "fim de semana → a partir de 13:00", alt.Describe(saturday))
}

func TestRule(t *testing.T) {
	engine := MustEngine(DefaultPolicy())
	assert.Equal(t, KindFixed, engine.Rule(monday).Kind)
	assert.True(t, engine.Rule(monday).Exclusive)
	assert.Equal(t, KindLadder, engine.Rule(saturday).Kind)

	alt := MustEngine(ThresholdPolicy())
	assert.Equal(t, "13:00", alt.Rule(saturday).Start, "saturday override applies")
}
