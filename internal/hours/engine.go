package hours

import (
	"fmt"
	"slices"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
)

type DayClass string

const (
	ClassWeekday DayClass = "weekday"
	ClassWeekend DayClass = "weekend"
)

type compiledDay struct {
	rule  DayRule
	slots []calendar.TimeOfDay
}

// Engine answers slot questions for any date under one compiled Policy.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	days [7]compiledDay
}

func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		rule := policy.RuleFor(wd)
		slots, err := expand(rule)
		if err != nil {
			return nil, fmt.Errorf("hours for %s: %w", wd, err)
		}
		e.days[wd] = compiledDay{rule: rule, slots: slots}
	}
	return e, nil
}

// MustEngine is NewEngine for policies known to be valid.
func MustEngine(policy Policy) *Engine {
	e, err := NewEngine(policy)
	if err != nil {
		panic(err)
	}
	return e
}

// AllowedSlots returns the ordered offerable times for d. An empty result
// means the business is closed that day.
func (e *Engine) AllowedSlots(d calendar.Date) []calendar.TimeOfDay {
	return slices.Clone(e.days[d.Weekday()].slots)
}

// IsAllowed reports whether t is one of d's offerable times.
func (e *Engine) IsAllowed(d calendar.Date, t calendar.TimeOfDay) bool {
	_, found := slices.BinarySearch(e.days[d.Weekday()].slots, t)
	return found
}

func (e *Engine) Classify(d calendar.Date) DayClass {
	if d.IsWeekend() {
		return ClassWeekend
	}
	return ClassWeekday
}

// IsExclusive reports whether d allows at most one reservation in total.
func (e *Engine) IsExclusive(d calendar.Date) bool {
	return e.days[d.Weekday()].rule.Exclusive
}

func (e *Engine) IsClosed(d calendar.Date) bool {
	return len(e.days[d.Weekday()].slots) == 0
}

// Rule returns the rule governing d's weekday.
func (e *Engine) Rule(d calendar.Date) DayRule {
	return e.days[d.Weekday()].rule
}

// Describe renders the day's rule as shown to visitors.
func (e *Engine) Describe(d calendar.Date) string {
	day := e.days[d.Weekday()]
	prefix := "dia útil"
	if e.Classify(d) == ClassWeekend {
		prefix = "fim de semana"
	}
	switch {
	case len(day.slots) == 0:
		return prefix + " → fechado"
	case len(day.slots) == 1:
		return fmt.Sprintf("%s → único %s", prefix, day.slots[0])
	case day.rule.Kind == KindThreshold:
		return fmt.Sprintf("%s → a partir de %s", prefix, day.slots[0])
	default:
		return fmt.Sprintf("%s → %s–%s", prefix, day.slots[0], day.slots[len(day.slots)-1])
	}
}
