package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/persist"
	"github.com/codr1/nailbook/internal/slots"
)

const RetentionJobName = "slot_retention_purge"

// RegisterRetentionJob schedules the retention purge on cronExpr.
func RegisterRetentionJob(cronExpr string, session *slots.Session, repo *persist.Repository) error {
	if session == nil || repo == nil {
		return fmt.Errorf("retention job requires session and repository")
	}
	_, err := AddJob(RetentionJobName, cronExpr, func(ctx context.Context) {
		removed, err := PurgeExpired(ctx, session, repo)
		logger := log.Ctx(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Retention purge failed")
			return
		}
		logger.Info().Int("removed", removed).Msg("Retention purge finished")
	})
	return err
}

// PurgeExpired applies the retention window while holding the session, so
// the write-back never interleaves with a booking.
func PurgeExpired(ctx context.Context, session *slots.Session, repo *persist.Repository) (int, error) {
	var removed int
	err := session.Exclusive(func() error {
		var err error
		removed, err = repo.PurgeNow(ctx)
		return err
	})
	return removed, err
}
