package calendar

import (
	"fmt"
	"strings"
	"time"
)

const TimeLayout = "15:04"

// TimeOfDay is a zero-padded HH:MM value. Lexicographic order equals
// chronological order, which the slot buckets rely on when sorting.
type TimeOfDay string

// ParseTimeOfDay accepts H:MM or HH:MM and returns the zero-padded form.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("time is required")
	}
	parsed, err := time.Parse(TimeLayout, raw)
	if err != nil {
		return "", fmt.Errorf("time must be in HH:MM format")
	}
	return TimeOfDay(parsed.Format(TimeLayout)), nil
}

// FromMinutes builds a TimeOfDay from minutes past midnight.
func FromMinutes(minutes int) TimeOfDay {
	return TimeOfDay(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
}

// Minutes returns minutes past midnight, or -1 for a malformed value.
func (t TimeOfDay) Minutes() int {
	parsed, err := time.Parse(TimeLayout, string(t))
	if err != nil {
		return -1
	}
	return parsed.Hour()*60 + parsed.Minute()
}

func (t TimeOfDay) String() string {
	return string(t)
}

// On combines t with d in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return d.Time(loc).Add(time.Duration(t.Minutes()) * time.Minute)
}
