package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/sse"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// DefaultAlertRetention is how long read alerts are kept.
const DefaultAlertRetention = 30 * 24 * time.Hour

const summaryAlertsPerKind = 5

// ScanOptions tune a manual scan.
type ScanOptions struct {
	// HorizonDays overrides the configured expiring-soon horizon.
	HorizonDays *int
	// Force deletes existing alerts in scope before scanning.
	Force bool
}

// ScanResult counts what a scan did.
type ScanResult struct {
	AlertsCreated     int   `json:"alerts_created"`
	ExpiringSoonCount int   `json:"expiring_soon_count"`
	ExpiredCount      int   `json:"expired_count"`
	ProductsScanned   int   `json:"products_scanned"`
	AlertsDeleted     int64 `json:"alerts_deleted,omitempty"`
}

// AlertGroup is one kind in the summary.
type AlertGroup struct {
	Count  int                  `json:"count"`
	Alerts []models.ExpiryAlert `json:"alerts"`
}

// AlertSummary is the dashboard alerts block.
type AlertSummary struct {
	ExpiringSoon AlertGroup `json:"expiring_soon"`
	Expired      AlertGroup `json:"expired"`
	TotalUnread  int        `json:"total_unread"`
}

// AlertService generates, acknowledges and sweeps expiry alerts.
type AlertService struct {
	products  ProductStore
	alerts    AlertStore
	notifier  sse.InventoryNotifier
	policy    classification.Policy
	retention time.Duration
	cal       calendar
}

// NewAlertService creates a new AlertService.
func NewAlertService(
	products ProductStore,
	alerts AlertStore,
	notifier sse.InventoryNotifier,
	policy classification.Policy,
	retention time.Duration,
	clk clock.Clock,
	loc *time.Location,
) *AlertService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	if retention <= 0 {
		retention = DefaultAlertRetention
	}
	return &AlertService{
		products:  products,
		alerts:    alerts,
		notifier:  notifier,
		policy:    policy,
		retention: retention,
		cal:       newCalendar(clk, loc),
	}
}

// Generate scans active certified products in scope and ensures one alert
// per (product, kind) the product currently deserves. Existing alerts, read
// or not, are left alone. Re-running is safe: creation is insert-or-ignore,
// so a scan that stopped halfway is completed by the next one.
func (s *AlertService) Generate(ctx context.Context, scope models.Scope, opts ScanOptions) (*ScanResult, error) {
	result := &ScanResult{}
	if scope.IsEmpty() {
		return result, nil
	}

	policy := s.policy
	if opts.HorizonDays != nil {
		if *opts.HorizonDays < 0 {
			return nil, validation("days", "must not be negative")
		}
		policy.HorizonDays = *opts.HorizonDays
	}

	if opts.Force {
		n, err := s.alerts.DeleteInScope(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("delete alerts: %w", err)
		}
		result.AlertsDeleted = n
		log.Info().Int64("deleted", n).Msg("Existing alerts deleted before forced scan")
	}

	today := s.cal.today()
	candidates, err := s.products.ListAlertCandidates(ctx, scope, policy.HorizonEnd(today))
	if err != nil {
		return nil, fmt.Errorf("list alert candidates: %w", err)
	}
	result.ProductsScanned = len(candidates)

	for i := range candidates {
		p := &candidates[i]
		kind, ok := policy.AlertKindFor(p.ExpiryDate, today)
		if !ok {
			continue
		}

		alert, created, err := s.alerts.Ensure(ctx, p.ID, kind)
		if err != nil {
			log.Error().Err(err).Str("product_id", p.ID.String()).Str("alert_type", string(kind)).Msg("Failed to ensure alert")
			return result, fmt.Errorf("ensure alert for %s: %w", p.ID, err)
		}
		if !created {
			continue
		}

		result.AlertsCreated++
		switch kind {
		case models.AlertExpiringSoon:
			result.ExpiringSoonCount++
		case models.AlertExpired:
			result.ExpiredCount++
		}
		s.notifier.NotifyAlertCreated(p, alert)
	}

	log.Info().
		Int("products_scanned", result.ProductsScanned).
		Int("alerts_created", result.AlertsCreated).
		Int("expiring_soon", result.ExpiringSoonCount).
		Int("expired", result.ExpiredCount).
		Msg("Alert scan completed")
	return result, nil
}

// List returns alerts in scope, newest first.
func (s *AlertService) List(ctx context.Context, f models.AlertFilter) ([]models.ExpiryAlert, error) {
	if f.Scope.IsEmpty() {
		return []models.ExpiryAlert{}, nil
	}
	return s.alerts.List(ctx, f)
}

// MarkRead acknowledges one visible alert.
func (s *AlertService) MarkRead(ctx context.Context, scope models.Scope, id int64) (*models.ExpiryAlert, error) {
	a, err := s.alerts.MarkRead(ctx, id, scope)
	if err != nil {
		return nil, notFound(err, utils.ErrAlertNotFound)
	}
	return a, nil
}

// MarkAllRead acknowledges every unread alert in scope.
func (s *AlertService) MarkAllRead(ctx context.Context, scope models.Scope) (int64, error) {
	if scope.IsEmpty() {
		return 0, nil
	}
	n, err := s.alerts.MarkAllRead(ctx, scope)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("marked", n).Msg("Alerts marked read")
	return n, nil
}

// PurgeRead deletes read alerts older than the retention window. Unread
// alerts are kept however old they are.
func (s *AlertService) PurgeRead(ctx context.Context) (int64, error) {
	cutoff := s.cal.clock.Now().Add(-s.retention)
	n, err := s.alerts.PurgeRead(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Old read alerts purged")
	return n, nil
}

// Summary returns unread counts per kind with the newest few of each.
func (s *AlertService) Summary(ctx context.Context, scope models.Scope) (*AlertSummary, error) {
	summary := &AlertSummary{
		ExpiringSoon: AlertGroup{Alerts: []models.ExpiryAlert{}},
		Expired:      AlertGroup{Alerts: []models.ExpiryAlert{}},
	}
	if scope.IsEmpty() {
		return summary, nil
	}

	counts, err := s.alerts.CountUnread(ctx, scope)
	if err != nil {
		return nil, err
	}
	for _, kind := range models.AlertKinds {
		alerts, err := s.alerts.List(ctx, models.AlertFilter{Scope: scope, Kind: kind, UnreadOnly: true, Limit: summaryAlertsPerKind})
		if err != nil {
			return nil, err
		}
		group := AlertGroup{Count: counts[kind], Alerts: alerts}
		switch kind {
		case models.AlertExpiringSoon:
			summary.ExpiringSoon = group
		case models.AlertExpired:
			summary.Expired = group
		}
		summary.TotalUnread += group.Count
	}
	return summary, nil
}
