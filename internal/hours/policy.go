// Package hours maps calendar dates to the time slots the business offers.
// The business-hours policy is data: one rule per weekday, compiled once into
// an Engine whose lookups are pure and allocation-light.
package hours

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
)

type RuleKind string

const (
	KindClosed    RuleKind = "closed"
	KindFixed     RuleKind = "fixed"
	KindLadder    RuleKind = "ladder"
	KindThreshold RuleKind = "threshold"
)

const (
	defaultStepMinutes  = 60
	defaultThresholdEnd = "23:00"
)

// DayRule describes the offerable slots of one weekday.
//
//   - fixed:     exactly Times
//   - ladder:    Start..End inclusive every StepMinutes
//   - threshold: every StepMinutes from Start (minimum hour) up to End, which
//     defaults to 23:00 when omitted
//   - closed:    nothing
//
// Exclusive marks the whole day as single-capacity: once one reservation
// exists the day is full regardless of which time was taken.
type DayRule struct {
	Kind        RuleKind `yaml:"kind" json:"kind"`
	Times       []string `yaml:"times,omitempty" json:"times,omitempty"`
	Start       string   `yaml:"start,omitempty" json:"start,omitempty"`
	End         string   `yaml:"end,omitempty" json:"end,omitempty"`
	StepMinutes int      `yaml:"step_minutes,omitempty" json:"stepMinutes,omitempty"`
	Exclusive   bool     `yaml:"exclusive,omitempty" json:"exclusive,omitempty"`
}

// Policy is the configuration form of the business hours: one rule for
// Monday-Friday, one for Saturday/Sunday, and optional per-weekday overrides
// keyed by lowercase English day name ("saturday").
type Policy struct {
	Weekday   DayRule            `yaml:"weekday"`
	Weekend   DayRule            `yaml:"weekend"`
	Overrides map[string]DayRule `yaml:"overrides,omitempty"`
}

// DefaultPolicy is the reference policy: weekdays offer only 18:00 and take
// one booking per day, weekends offer 08:00-18:00 on the hour.
func DefaultPolicy() Policy {
	return Policy{
		Weekday: DayRule{Kind: KindFixed, Times: []string{"18:00"}, Exclusive: true},
		Weekend: DayRule{Kind: KindLadder, Start: "08:00", End: "18:00", StepMinutes: 60},
	}
}

// ThresholdPolicy is the alternate policy seen in older revisions: weekdays
// from 18:00, Saturday from 13:00, Sunday 08:00-20:00.
func ThresholdPolicy() Policy {
	return Policy{
		Weekday: DayRule{Kind: KindThreshold, Start: "18:00", End: "20:00", StepMinutes: 60},
		Weekend: DayRule{Kind: KindLadder, Start: "08:00", End: "20:00", StepMinutes: 60},
		Overrides: map[string]DayRule{
			"saturday": {Kind: KindThreshold, Start: "13:00", End: "20:00", StepMinutes: 60},
		},
	}
}

// RuleFor resolves the rule that applies to wd.
func (p Policy) RuleFor(wd time.Weekday) DayRule {
	if rule, ok := p.Overrides[strings.ToLower(wd.String())]; ok {
		return rule
	}
	if wd == time.Saturday || wd == time.Sunday {
		return p.Weekend
	}
	return p.Weekday
}

func (p Policy) Validate() error {
	for name := range p.Overrides {
		if _, ok := parseWeekday(name); !ok {
			return fmt.Errorf("hours override %q is not a weekday name", name)
		}
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if _, err := expand(p.RuleFor(wd)); err != nil {
			return fmt.Errorf("hours for %s: %w", strings.ToLower(wd.String()), err)
		}
	}
	return nil
}

// expand turns a rule into its sorted, unique slot list.
func expand(rule DayRule) ([]calendar.TimeOfDay, error) {
	switch rule.Kind {
	case KindClosed:
		return nil, nil
	case KindFixed:
		if len(rule.Times) == 0 {
			return nil, fmt.Errorf("fixed rule requires at least one time")
		}
		seen := make(map[calendar.TimeOfDay]struct{}, len(rule.Times))
		out := make([]calendar.TimeOfDay, 0, len(rule.Times))
		for _, raw := range rule.Times {
			t, err := calendar.ParseTimeOfDay(raw)
			if err != nil {
				return nil, fmt.Errorf("fixed time %q: %w", raw, err)
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
		slices.Sort(out)
		return out, nil
	case KindLadder, KindThreshold:
		start, err := calendar.ParseTimeOfDay(rule.Start)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		endRaw := rule.End
		if endRaw == "" {
			if rule.Kind == KindLadder {
				return nil, fmt.Errorf("ladder rule requires an end time")
			}
			endRaw = defaultThresholdEnd
		}
		end, err := calendar.ParseTimeOfDay(endRaw)
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		if end < start {
			return nil, fmt.Errorf("end %s is before start %s", end, start)
		}
		step := rule.StepMinutes
		if step == 0 {
			step = defaultStepMinutes
		}
		if step < 0 {
			return nil, fmt.Errorf("step_minutes must be positive")
		}
		var out []calendar.TimeOfDay
		for m := start.Minutes(); m <= end.Minutes(); m += step {
			out = append(out, calendar.FromMinutes(m))
		}
		return out, nil
	case "":
		return nil, fmt.Errorf("rule kind is required")
	default:
		return nil, fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
}

func parseWeekday(name string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), strings.TrimSpace(name)) {
			return wd, true
		}
	}
	return 0, false
}
