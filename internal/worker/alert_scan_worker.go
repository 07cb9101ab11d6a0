package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/service"
)

const alertScanJob = "generate-alerts"

// AlertScanner is the part of *service.AlertService the scan worker uses.
type AlertScanner interface {
	Generate(ctx context.Context, scope models.Scope, opts service.ScanOptions) (*service.ScanResult, error)
}

// AlertScanWorker periodically ensures expiry alerts across every store.
type AlertScanWorker struct {
	alerts   AlertScanner
	lock     Locker
	interval time.Duration
}

// NewAlertScanWorker constructs an AlertScanWorker. lock may be nil for a
// single-replica deployment.
func NewAlertScanWorker(alerts AlertScanner, lock Locker, interval time.Duration) *AlertScanWorker {
	return &AlertScanWorker{alerts: alerts, lock: lock, interval: interval}
}

// Start begins the periodic scan loop until context is canceled.
func (w *AlertScanWorker) Start(ctx context.Context) {
	loop(ctx, alertScanJob, w.interval, func(ctx context.Context) {
		_, _ = w.RunOnce(ctx, service.ScanOptions{})
	})
}

// RunOnce scans all stores unless another replica holds the lock, in which
// case it returns a nil result.
func (w *AlertScanWorker) RunOnce(ctx context.Context, opts service.ScanOptions) (*service.ScanResult, error) {
	var (
		result *service.ScanResult
		err    error
	)
	runLocked(ctx, w.lock, alertScanJob, w.lockTTL(), func(ctx context.Context) {
		result, err = w.alerts.Generate(ctx, models.Scope{All: true}, opts)
		if err != nil {
			log.Error().Err(err).Msg("Alert scan failed")
			return
		}
		log.Info().
			Int("products_scanned", result.ProductsScanned).
			Int("alerts_created", result.AlertsCreated).
			Int("expiring_soon", result.ExpiringSoonCount).
			Int("expired", result.ExpiredCount).
			Msg("Alert scan completed")
	})
	return result, err
}

// The lock outlives a slow scan but not the next tick.
func (w *AlertScanWorker) lockTTL() time.Duration {
	if w.interval > 0 {
		return w.interval / 2
	}
	return 5 * time.Minute
}
