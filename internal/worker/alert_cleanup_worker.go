package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	alertCleanupJob     = "cleanup-alerts"
	alertCleanupLockTTL = 10 * time.Minute
)

// AlertPurger is the part of *service.AlertService the cleanup worker uses.
type AlertPurger interface {
	PurgeRead(ctx context.Context) (int64, error)
}

// AlertCleanupWorker deletes read alerts past their retention.
type AlertCleanupWorker struct {
	alerts   AlertPurger
	lock     Locker
	interval time.Duration
}

// NewAlertCleanupWorker constructs an AlertCleanupWorker.
func NewAlertCleanupWorker(alerts AlertPurger, lock Locker, interval time.Duration) *AlertCleanupWorker {
	return &AlertCleanupWorker{alerts: alerts, lock: lock, interval: interval}
}

// Start begins the periodic cleanup loop until context is canceled.
func (w *AlertCleanupWorker) Start(ctx context.Context) {
	loop(ctx, alertCleanupJob, w.interval, func(ctx context.Context) {
		_, _ = w.RunOnce(ctx)
	})
}

// RunOnce purges once. Unread alerts are never touched.
func (w *AlertCleanupWorker) RunOnce(ctx context.Context) (int64, error) {
	var (
		deleted int64
		err     error
	)
	runLocked(ctx, w.lock, alertCleanupJob, alertCleanupLockTTL, func(ctx context.Context) {
		deleted, err = w.alerts.PurgeRead(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Alert cleanup failed")
			return
		}
		log.Info().Int64("deleted", deleted).Msg("Alert cleanup completed")
	})
	return deleted, err
}
