package booking

import (
	"errors"
	"fmt"
)

// Rejections. All of them are recoverable: nothing was saved and the
// visitor may retry with a different choice.
var (
	ErrPastDate       = errors.New("booking: date is in the past")
	ErrDisallowedTime = errors.New("booking: time is not offered on that date")
	ErrDayFull        = errors.New("booking: day is already booked")
	ErrSlotTaken      = errors.New("booking: time slot is already taken")
	ErrInvalidInput   = errors.New("booking: invalid request")
)

// FieldError is an ErrInvalidInput tied to one request field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("booking: %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

func fieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// IsRejection reports whether err is a booking rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return Code(err) != ""
}

// IsConflict reports whether err rejects because of existing occupancy.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDayFull) || errors.Is(err, ErrSlotTaken)
}

// Code returns a stable machine-readable code for a rejection, or "" for
// any other error.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrDisallowedTime):
		return "disallowed_time"
	case errors.Is(err, ErrDayFull):
		return "day_full"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	}
	return ""
}
