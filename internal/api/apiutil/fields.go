package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
)

func ParsePositiveIntField(raw string, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", field)
	}
	return value, nil
}

func ParseBoolField(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}

// DatePath reads a YYYY-MM-DD path value.
func DatePath(r *http.Request, name string) (calendar.Date, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, BadRequest(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", name), err)
	}
	return d, nil
}

// TimePath reads an HH:MM path value.
func TimePath(r *http.Request, name string) (calendar.TimeOfDay, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	t, err := calendar.ParseTimeOfDay(raw)
	if err != nil {
		return "", BadRequest(fmt.Sprintf("%s must be a time in HH:MM format", name), err)
	}
	return t, nil
}

// YearMonthQuery reads year and month from the query string, falling back
// to the month containing today when both are absent.
func YearMonthQuery(r *http.Request, today calendar.Date) (int, time.Month, error) {
	query := r.URL.Query()
	rawYear, rawMonth := query.Get("year"), query.Get("month")
	if strings.TrimSpace(rawYear) == "" && strings.TrimSpace(rawMonth) == "" {
		return today.Year, today.Month, nil
	}
	year, err := ParsePositiveIntField(rawYear, "year")
	if err != nil {
		return 0, 0, BadRequest(err.Error(), err)
	}
	month, err := ParsePositiveIntField(rawMonth, "month")
	if err != nil {
		return 0, 0, BadRequest(err.Error(), err)
	}
	if month > 12 {
		return 0, 0, BadRequest("month must be between 1 and 12", nil)
	}
	return year, time.Month(month), nil
}
