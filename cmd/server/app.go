// cmd/server/app.go
package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/api/admin"
	"github.com/codr1/nailbook/internal/api/auth"
	bookingapi "github.com/codr1/nailbook/internal/api/booking"
	"github.com/codr1/nailbook/internal/booking"
	"github.com/codr1/nailbook/internal/config"
	"github.com/codr1/nailbook/internal/db"
	"github.com/codr1/nailbook/internal/hours"
	"github.com/codr1/nailbook/internal/lifecycle"
	"github.com/codr1/nailbook/internal/messaging"
	"github.com/codr1/nailbook/internal/metrics"
	"github.com/codr1/nailbook/internal/persist"
	"github.com/codr1/nailbook/internal/ratelimit"
	"github.com/codr1/nailbook/internal/scheduler"
	"github.com/codr1/nailbook/internal/slots"
)

// app holds the long-lived collaborators shared by the HTTP handlers and
// the scheduler.
type app struct {
	db        *db.DB
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	closeOnce sync.Once
}

func newApp(cfg *config.Config) (*app, error) {
	loc := cfg.Location()

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{db: database}

	if cfg.Features.EnableMetrics {
		a.metrics = metrics.New("nailbook")
	}

	repo := persist.NewRepository(database.Medium(), persist.Options{
		RetentionDays: cfg.Business.RetentionDays,
		Location:      loc,
		OnPurge:       a.metrics.Purged,
	})
	session := slots.NewSession(repo)

	engine, err := hours.NewEngine(*cfg.Hours)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("business hours: %w", err)
	}

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	bookings, err := booking.NewService(booking.Config{
		Engine:      engine,
		Session:     session,
		Dispatcher:  dispatcher,
		Location:    loc,
		Services:    cfg.Business.Services,
		PhoneRegion: cfg.Business.Region,
		OnOutcome:   a.metrics.BookingOutcome,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	manager := lifecycle.NewManager(session, lifecycle.Options{
		Location:     loc,
		OnTransition: a.metrics.Transition,
	})

	a.limiter = ratelimit.New(&ratelimit.Config{
		Cooldown:     time.Duration(cfg.Limits.PhoneCooldownSeconds) * time.Second,
		MaxPerHour:   cfg.Limits.PhoneHourlyMax,
		MaxIPPerHour: cfg.Limits.IPHourlyMax,
	})

	sessions := auth.NewSessions(auth.Config{
		PasswordHash: cfg.Admin.PasswordHash,
		HashKey:      cfg.Admin.HashKey,
		BlockKey:     cfg.Admin.BlockKey,
		TTL:          time.Duration(cfg.Admin.SessionHours) * time.Hour,
		Secure:       cfg.IsProduction(),
	})
	if !sessions.Enabled() {
		log.Warn().Msg("ADMIN_PASSWORD_HASH not set; admin login is disabled")
	}
	if len(cfg.Admin.HashKey) == 0 {
		log.Warn().Msg("SESSION_HASH_KEY not set; admin sessions will not survive a restart")
	}

	auth.InitHandlers(sessions)
	bookingapi.InitHandlers(bookingapi.Deps{Service: bookings, Limiter: a.limiter})
	admin.InitHandlers(admin.Deps{Manager: manager, Session: session, Location: loc})

	if err := scheduler.Init(); err != nil {
		a.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	if err := scheduler.RegisterRetentionJob(cfg.Business.PurgeCron, session, repo); err != nil {
		a.Close()
		return nil, fmt.Errorf("register retention job: %w", err)
	}

	log.Info().
		Str("timezone", loc.String()).
		Int("retention_days", cfg.Business.RetentionDays).
		Str("purge_cron", cfg.Business.PurgeCron).
		Strs("services", cfg.Business.Services).
		Msg("Application initialized")
	return a, nil
}

func newDispatcher(cfg *config.Config) (messaging.Dispatcher, error) {
	whatsapp, err := messaging.NewWhatsApp(cfg.Business.ProviderName, cfg.Business.WhatsAppPhone, cfg.Business.Region)
	if err != nil {
		return nil, fmt.Errorf("whatsapp recipient: %w", err)
	}
	if !cfg.Notifications.Enabled {
		return whatsapp, nil
	}

	ses, err := messaging.NewSESClient(
		cfg.Notifications.AccessKeyID,
		cfg.Notifications.SecretAccessKey,
		cfg.Notifications.Region,
		cfg.Notifications.Sender,
	)
	if err != nil {
		return nil, fmt.Errorf("ses client: %w", err)
	}
	log.Info().Str("recipient", cfg.Notifications.ProviderEmail).Msg("Booking e-mail notifications enabled")
	return messaging.NewNotifier(whatsapp, ses, cfg.Notifications.ProviderEmail), nil
}

func (a *app) Close() {
	a.closeOnce.Do(func() {
		if a.limiter != nil {
			a.limiter.Close()
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}
	})
}
