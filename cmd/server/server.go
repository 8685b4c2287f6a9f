// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codr1/nailbook/internal/api"
	"github.com/codr1/nailbook/internal/api/admin"
	"github.com/codr1/nailbook/internal/api/auth"
	bookingapi "github.com/codr1/nailbook/internal/api/booking"
	"github.com/codr1/nailbook/internal/config"
)

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	middleware := []api.Middleware{}
	if a.metrics != nil {
		middleware = append(middleware, api.WithMetrics(a.metrics))
	}
	middleware = append(middleware,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)
	handler := api.ChainMiddleware(router, middleware...)

	// Register routes
	registerRoutes(router, a)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, a *app) {
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return api.WithAdminAuth(h)
	}

	// Health check
	mux.HandleFunc("GET /health", bookingapi.HandleHealth)

	// Public booking routes
	mux.HandleFunc("GET /api/v1/days/{date}", bookingapi.HandleDay)
	mux.HandleFunc("GET /api/v1/calendar", bookingapi.HandleCalendar)
	mux.HandleFunc("POST /api/v1/bookings", bookingapi.HandleCreateBooking)

	// Admin session
	mux.HandleFunc("GET /admin/login", auth.HandleLoginPage)
	mux.HandleFunc("POST /admin/login", auth.HandleLogin)
	mux.HandleFunc("POST /admin/logout", auth.HandleLogout)

	// Admin routes
	mux.Handle("GET /admin", adminOnly(admin.HandleAgendaPage))
	mux.Handle("GET /api/v1/admin/appointments", adminOnly(admin.HandleAppointments))
	mux.Handle("POST /api/v1/admin/appointments/{date}/{time}/complete", adminOnly(admin.HandleComplete))
	mux.Handle("POST /api/v1/admin/appointments/{date}/{time}/reopen", adminOnly(admin.HandleReopen))
	mux.Handle("GET /api/v1/admin/export.csv", adminOnly(admin.HandleExportCSV))
	mux.Handle("GET /api/v1/admin/backup", adminOnly(admin.HandleBackup))
	mux.Handle("POST /api/v1/admin/restore", adminOnly(admin.HandleRestore))

	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
	}
}
