package calendar

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "canonical", raw: "2025-08-18", want: "2025-08-18"},
		{name: "trimmed", raw: "  2025-08-23 ", want: "2025-08-23"},
		{name: "empty", raw: "", wantErr: true},
		{name: "slashes", raw: "18/08/2025", wantErr: true},
		{name: "impossible_day", raw: "2025-02-30", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseDate(test.raw)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error", test.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", test.raw, err)
			}
			if got.String() != test.want {
				t.Fatalf("ParseDate(%q) = %s, want %s", test.raw, got, test.want)
			}
		})
	}
}

func TestDateWeekdayAndWeekend(t *testing.T) {
	monday := MustParseDate("2025-08-18")
	if monday.Weekday() != time.Monday {
		t.Fatalf("weekday = %s, want Monday", monday.Weekday())
	}
	if monday.IsWeekend() {
		t.Fatalf("monday reported as weekend")
	}
	saturday := MustParseDate("2025-08-23")
	if !saturday.IsWeekend() {
		t.Fatalf("saturday not reported as weekend")
	}
	if !MustParseDate("2025-08-24").IsWeekend() {
		t.Fatalf("sunday not reported as weekend")
	}
}

func TestDateCompareAndAddDays(t *testing.T) {
	d := MustParseDate("2025-12-31")
	next := d.AddDays(1)
	if next.String() != "2026-01-01" {
		t.Fatalf("AddDays(1) = %s", next)
	}
	if !d.Before(next) || !next.After(d) {
		t.Fatalf("ordering broken between %s and %s", d, next)
	}
	if d.Compare(MustParseDate("2025-12-31")) != 0 {
		t.Fatalf("equal dates compare non-zero")
	}
	if d.AddDays(-30).String() != "2025-12-01" {
		t.Fatalf("AddDays(-30) = %s", d.AddDays(-30))
	}
}

func TestTodayUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// 01:30 UTC is still the previous day in Sao Paulo (UTC-3).
	now := time.Date(2025, 8, 19, 1, 30, 0, 0, time.UTC)
	if got := Today(now, loc).String(); got != "2025-08-18" {
		t.Fatalf("Today = %s, want 2025-08-18", got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		raw     string
		want    TimeOfDay
		wantErr bool
	}{
		{raw: "18:00", want: "18:00"},
		{raw: "8:00", want: "08:00"},
		{raw: " 09:30 ", want: "09:30"},
		{raw: "24:00", wantErr: true},
		{raw: "18h", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, test := range tests {
		got, err := ParseTimeOfDay(test.raw)
		if test.wantErr {
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q) expected error", test.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", test.raw, err)
		}
		if got != test.want {
			t.Fatalf("ParseTimeOfDay(%q) = %s, want %s", test.raw, got, test.want)
		}
	}
}

func TestTimeOfDayMinutesRoundTrip(t *testing.T) {
	for _, minutes := range []int{0, 8 * 60, 13*60 + 30, 23*60 + 59} {
		if got := FromMinutes(minutes).Minutes(); got != minutes {
			t.Fatalf("round trip %d -> %d", minutes, got)
		}
	}
	if TimeOfDay("bogus").Minutes() != -1 {
		t.Fatalf("malformed value should report -1")
	}
}
