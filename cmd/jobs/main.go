package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/cache"
	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/config"
	"github.com/GTDGit/halal_inventory_api/internal/database"
	"github.com/GTDGit/halal_inventory_api/internal/events"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/repository"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/sse"
	"github.com/GTDGit/halal_inventory_api/internal/worker"
)

const usage = `usage: jobs <command> [flags]

commands:
  generate-alerts [-days N] [-force]   scan every store and create expiry alerts
  cleanup-alerts                       delete read alerts past retention
  product-report                       print inventory statistics as JSON
`

// main runs one scheduled job and exits. Each job is safe to re-run and, with
// Redis configured, takes the same lock as the in-process workers.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var (
		days  int
		force bool
	)
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	switch cmd {
	case "generate-alerts":
		fs.IntVar(&days, "days", -1, "override the expiry horizon in days (default: EXPIRY_HORIZON_DAYS)")
		fs.BoolVar(&force, "force", false, "delete existing alerts before scanning")
	case "cleanup-alerts", "product-report":
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newJobApp(cfg)
	if err != nil {
		log.Error().Err(err).Msg("job setup failed")
		os.Exit(1)
	}
	defer app.close()

	switch cmd {
	case "generate-alerts":
		opts := service.ScanOptions{Force: force}
		if days >= 0 {
			opts.HorizonDays = &days
		}
		err = app.generateAlerts(ctx, opts)
	case "cleanup-alerts":
		err = app.cleanupAlerts(ctx)
	case "product-report":
		err = app.productReport(ctx)
	}
	if err != nil {
		log.Error().Err(err).Str("job", cmd).Msg("job failed")
		os.Exit(1)
	}
}

type jobApp struct {
	cfg       *config.Config
	alerts    *service.AlertService
	dashboard *service.DashboardService
	lock      worker.Locker
	closers   []func() error
}

func newJobApp(cfg *config.Config) (*jobApp, error) {
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return nil, err
	}
	app := &jobApp{cfg: cfg, closers: []func() error{db.Close}}

	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, redisClient.Close)
		app.lock = cache.NewJobLock(redisClient)
	}

	var notifier sse.InventoryNotifier = &sse.NopNotifier{}
	if publisher := events.NewPublisher(cfg.Kafka); publisher != nil {
		app.closers = append(app.closers, publisher.Close)
		notifier = publisher
	}

	clk := clock.NewRealClock()
	loc := cfg.Inventory.Location
	policy := classification.Policy{HorizonDays: cfg.Inventory.ExpiryHorizonDays}

	productRepo := repository.NewProductRepository(db)
	storeRepo := repository.NewStoreRepository(db)

	stock := service.NewStockService(repository.NewStockRepository(db), productRepo, notifier, clk, loc)
	app.alerts = service.NewAlertService(productRepo, repository.NewAlertRepository(db), notifier, policy,
		cfg.Inventory.AlertRetention, clk, loc)
	app.dashboard = service.NewDashboardService(repository.NewDashboardRepository(db), repository.NewCatalogRepository(db),
		storeRepo, stock, app.alerts, service.NewScopeService(storeRepo), policy, cfg.Inventory.RecentActivityLimit, clk, loc)
	return app, nil
}

func (a *jobApp) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func (a *jobApp) generateAlerts(ctx context.Context, opts service.ScanOptions) error {
	result, err := worker.NewAlertScanWorker(a.alerts, a.lock, a.cfg.Worker.AlertScanInterval).RunOnce(ctx, opts)
	if err != nil {
		return err
	}
	if result == nil {
		log.Info().Msg("generate-alerts skipped: another replica holds the lock")
		return nil
	}
	return printJSON(result)
}

func (a *jobApp) cleanupAlerts(ctx context.Context) error {
	deleted, err := worker.NewAlertCleanupWorker(a.alerts, a.lock, a.cfg.Worker.AlertCleanupInterval).RunOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]int64{"deleted": deleted})
}

func (a *jobApp) productReport(ctx context.Context) error {
	stats, err := a.dashboard.Stats(ctx, models.Scope{All: true})
	if err != nil {
		return err
	}
	return printJSON(struct {
		GeneratedAt string `json:"generated_at"`
		models.InventoryStats
		Catalog *repository.CatalogCounts `json:"catalog,omitempty"`
	}{
		GeneratedAt:    clock.NewRealClock().Now().In(a.cfg.Inventory.Location).Format("2006-01-02"),
		InventoryStats: stats.InventoryStats,
		Catalog:        stats.Catalog,
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	// Job output goes to stdout; logs go to stderr.
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
