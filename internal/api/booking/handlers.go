// internal/api/booking/handlers.go
package booking

import (
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/api/apiutil"
	"github.com/codr1/nailbook/internal/booking"
	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/messaging"
	"github.com/codr1/nailbook/internal/ratelimit"
)

// Deps are the collaborators of the public booking handlers.
type Deps struct {
	Service *booking.Service
	// Limiter is optional; without it submissions are not throttled.
	Limiter    *ratelimit.Limiter
	TrustProxy bool
}

var (
	deps     *Deps
	depsOnce sync.Once
)

type bookingRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Name    string `json:"name"`
	Service string `json:"service"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
}

type bookingResponse struct {
	Date        calendar.Date      `json:"date"`
	Time        calendar.TimeOfDay `json:"time"`
	DateLabel   string             `json:"dateLabel"`
	TimeLabel   string             `json:"timeLabel"`
	Service     string             `json:"service"`
	DispatchURL string             `json:"dispatchUrl,omitempty"`
	Message     string             `json:"message,omitempty"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	if d.Service == nil {
		return
	}
	depsOnce.Do(func() {
		deps = &d
	})
}

// GET /health
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GET /api/v1/days/{date}
func HandleDay(w http.ResponseWriter, r *http.Request) {
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	date, err := apiutil.DatePath(r, "date")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	offer, err := d.Service.Offer(r.Context(), date)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, offer); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write day offer")
	}
}

// GET /api/v1/calendar?year=&month=
func HandleCalendar(w http.ResponseWriter, r *http.Request) {
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	year, month, err := apiutil.YearMonthQuery(r, d.Service.Today())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	view, err := d.Service.Month(r.Context(), year, month)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, view); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write month view")
	}
}

// POST /api/v1/bookings
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	var req bookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid JSON body", err))
		return
	}

	parsed, err := parseRequest(req)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ip := ratelimit.GetClientIP(r, d.TrustProxy)
	identifier := limitIdentifier(parsed)
	if d.Limiter != nil {
		result := d.Limiter.CheckBooking(identifier, ip)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), identifier, ip, result.Reason)
			apiutil.WriteTooManyRequests(w, result.RetryAfter)
			return
		}
	}

	conf, err := d.Service.Reserve(r.Context(), parsed)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if d.Limiter != nil {
		d.Limiter.RecordBooking(identifier, ip)
	}

	resp := bookingResponse{
		Date:        conf.Date,
		Time:        conf.Time,
		DateLabel:   conf.DateLabel,
		TimeLabel:   conf.TimeLabel,
		Service:     conf.Service,
		DispatchURL: conf.Dispatch.URL,
		Message:     conf.Dispatch.Text,
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write booking confirmation")
	}
}

func parseRequest(req bookingRequest) (booking.Request, error) {
	date, err := calendar.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return booking.Request{}, &booking.FieldError{Field: "date", Message: "date must be in YYYY-MM-DD format"}
	}
	t, err := calendar.ParseTimeOfDay(strings.TrimSpace(req.Time))
	if err != nil {
		return booking.Request{}, &booking.FieldError{Field: "time", Message: "time must be in HH:MM format"}
	}
	return booking.Request{
		Date:    date,
		Time:    t,
		Name:    req.Name,
		Service: req.Service,
		Phone:   req.Phone,
		Notes:   req.Notes,
	}, nil
}

// limitIdentifier keys the per-visitor window by phone when given, else by
// name.
func limitIdentifier(req booking.Request) string {
	if digits := messaging.Digits(req.Phone); digits != "" {
		return "phone:" + digits
	}
	return "name:" + strings.ToLower(strings.TrimSpace(req.Name))
}

func loadDeps(w http.ResponseWriter, r *http.Request) *Deps {
	if deps == nil {
		log.Ctx(r.Context()).Error().Msg("Booking handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	return deps
}
