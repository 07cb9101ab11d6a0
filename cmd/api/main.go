package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/cache"
	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/config"
	"github.com/GTDGit/halal_inventory_api/internal/database"
	"github.com/GTDGit/halal_inventory_api/internal/events"
	"github.com/GTDGit/halal_inventory_api/internal/handler"
	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/repository"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/sse"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
	"github.com/GTDGit/halal_inventory_api/internal/worker"
)

const (
	invalidAuthLimit  = 20
	invalidAuthWindow = time.Minute
)

// main is the entrypoint for the halal inventory API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting halal inventory api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.Migrate(db.DB, cfg.MigrationsURL); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis (optional)
	var (
		redisClient *cache.RedisClient
		redisPinger handler.RedisPinger
		jobLock     worker.Locker
		idemCache   *cache.IdempotencyCache
	)
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		redisPinger = redisClient
		jobLock = cache.NewJobLock(redisClient)
		idemCache = cache.NewIdempotencyCache(redisClient, cfg.POS.IdempotencyTTL)
		log.Info().Msg("redis connected successfully")
	} else {
		log.Warn().Msg("REDIS_HOST not set - job locks and POS idempotency disabled")
	}

	// 3c. Event fan-out: SSE hub always, Kafka when brokers are configured
	hub := sse.NewHub()
	notifier := sse.MultiNotifier{sse.NewHubNotifier(hub)}
	if publisher := events.NewPublisher(cfg.Kafka); publisher != nil {
		defer publisher.Close()
		notifier = append(notifier, publisher)
	}

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	importRepo := repository.NewImportRepository(db)

	// 5. Initialize services
	clk := clock.NewRealClock()
	loc := cfg.Inventory.Location
	policy := classification.Policy{HorizonDays: cfg.Inventory.ExpiryHorizonDays}
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	scopeSvc := service.NewScopeService(storeRepo)
	authSvc := service.NewAuthService(userRepo, storeRepo, jwtManager)
	storeSvc := service.NewStoreService(storeRepo)
	catalogSvc := service.NewCatalogService(catalogRepo)
	labelSvc := service.NewLabelService()
	productSvc := service.NewProductService(productRepo, storeRepo, ticketRepo, labelSvc, policy, clk, loc)
	stockSvc := service.NewStockService(stockRepo, productRepo, notifier, clk, loc)
	alertSvc := service.NewAlertService(productRepo, alertRepo, notifier, policy, cfg.Inventory.AlertRetention, clk, loc)
	dashboardSvc := service.NewDashboardService(dashboardRepo, catalogRepo, storeRepo, stockSvc, alertSvc, scopeSvc,
		policy, cfg.Inventory.RecentActivityLimit, clk, loc)
	posSvc := service.NewPOSService(stockSvc, productRepo, idemCache)
	importSvc := service.NewImportService(productSvc, importRepo, clk)

	// 6. Initialize handlers
	rateLimiter := middleware.NewInvalidAuthRateLimiter(invalidAuthLimit, invalidAuthWindow)
	defer rateLimiter.Stop()

	handlers := &handler.Handlers{
		Health:           handler.NewHealthHandler(db, redisPinger),
		Auth:             handler.NewAuthHandler(authSvc, rateLimiter),
		Store:            handler.NewStoreHandler(storeSvc),
		Catalog:          handler.NewCatalogHandler(catalogSvc),
		Product:          handler.NewProductHandler(productSvc, stockSvc, importSvc),
		StockTransaction: handler.NewStockTransactionHandler(stockSvc),
		Alert:            handler.NewAlertHandler(alertSvc),
		Dashboard:        handler.NewDashboardHandler(dashboardSvc),
		POS:              handler.NewPOSHandler(posSvc),
		SSE:              handler.NewSSEHandler(hub),
	}

	// 7. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(jwtManager, scopeSvc, rateLimiter)

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSHosts))
	router.Use(middleware.LoggingMiddleware())
	handler.SetupRoutes(router, handlers, handler.RouteOptions{
		JWT:          jwtMw,
		POSSignature: cfg.POS.SignatureSecret,
	})

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	if cfg.Worker.Enabled {
		go worker.NewAlertScanWorker(alertSvc, jobLock, cfg.Worker.AlertScanInterval).Start(ctx)
		go worker.NewAlertCleanupWorker(alertSvc, jobLock, cfg.Worker.AlertCleanupInterval).Start(ctx)
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts derive from ctx so open SSE streams end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers and SSE streams
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
