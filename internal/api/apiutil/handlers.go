package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/booking"
)

const maxBodyBytes = 1 << 20

type HandlerError struct {
	Status  int
	Message string
	Code    string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorBody is the JSON shape of every API error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError writes err as a JSON error body. Booking rejections map to 409
// for occupancy conflicts and 422 for everything else; a HandlerError keeps
// its own status; anything else is logged and reported as a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var herr HandlerError
	if errors.As(err, &herr) {
		if herr.Err != nil && herr.Status >= http.StatusInternalServerError {
			logger.Error().Err(herr.Err).Msg(herr.Message)
		}
		writeErrorBody(w, herr.Status, ErrorBody{Error: herr.Message, Code: herr.Code})
		return
	}

	if code := booking.Code(err); code != "" {
		status := http.StatusUnprocessableEntity
		if booking.IsConflict(err) {
			status = http.StatusConflict
		}
		body := ErrorBody{Error: err.Error(), Code: code}
		var ferr *booking.FieldError
		if errors.As(err, &ferr) {
			body.Error = ferr.Message
			body.Field = ferr.Field
		}
		writeErrorBody(w, status, body)
		return
	}

	logger.Error().Err(err).Msg("Request failed")
	writeErrorBody(w, http.StatusInternalServerError, ErrorBody{Error: "Internal Server Error"})
}

// WriteTooManyRequests answers 429 with a Retry-After rounded up to whole
// seconds.
func WriteTooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeErrorBody(w, http.StatusTooManyRequests, ErrorBody{
		Error: "Too many booking attempts, please try again later",
		Code:  "rate_limited",
	})
}

func BadRequest(message string, err error) HandlerError {
	return HandlerError{Status: http.StatusBadRequest, Message: message, Code: "bad_request", Err: err}
}

func NotFound(message string) HandlerError {
	return HandlerError{Status: http.StatusNotFound, Message: message, Code: "not_found"}
}

func writeErrorBody(w http.ResponseWriter, status int, body ErrorBody) {
	_ = WriteJSON(w, status, body)
}
