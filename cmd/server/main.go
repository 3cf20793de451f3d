package main

import (
	"backoffice_app_go/config"
	"backoffice_app_go/db"
	"backoffice_app_go/handlers"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"backoffice_app_go/services/jobs"
	"backoffice_app_go/services/metrics"
	"backoffice_app_go/services/realtime"
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	// Run migrations
	if err := db.AutoMigrate(database, models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Real-time: local hub, fanned out through Redis when configured
	hub := realtime.NewHub()
	var broadcaster realtime.Broadcaster = hub
	var locker services.Locker = services.NewDBLocker(database)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		broadcaster = realtime.NewRedisBroadcaster(redisClient, realtime.DefaultRedisPrefix)
		locker = services.NewRedisLocker(redisClient)
		go func() {
			if err := realtime.Relay(ctx, redisClient, realtime.DefaultRedisPrefix, hub); err != nil {
				log.Printf("[REALTIME] Redis relay stopped: %v", err)
			}
		}()
		log.Println("Real-time: Redis pub/sub")
	} else {
		log.Println("Real-time: in-process hub (single instance)")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	dispatcher := services.NewDispatcher(database, broadcaster)
	dispatcher.Metrics = m
	if cfg.EmailCriticalAlerts {
		dispatcher.Mailer = services.NewResendMailer(cfg)
		dispatcher.CriticalEmail = true
	}

	policy := services.ThresholdPolicyFromConfig(cfg)
	storage := services.NewStorage(ctx, cfg)

	monitor := services.NewLoginMonitor()
	monitor.Notify = services.AdminAlertNotifier(dispatcher)

	app := handlers.App{
		DB:            database,
		Hub:           hub,
		Dispatcher:    dispatcher,
		Notifications: services.NewNotificationService(database),
		Documents:     services.NewDocumentService(database, storage, policy, loc),
		Marches:       services.NewMarcheService(database, dispatcher, loc),
		Workforce:     services.NewWorkforceService(database, dispatcher, loc),
		LoginMonitor:  monitor,
		SecureCookie:  cfg.IsProduction(),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	// Open event streams end with the process
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	handlers.RegisterRoutes(e, app)

	// Expiration scan and session cleanup
	scanner := jobs.NewExpirationScanner(database, dispatcher, policy, locker, loc)
	scanner.Metrics = m
	scanner.LockTTL = cfg.ScanLockTTL
	scheduler, err := jobs.StartScheduler(database, scanner, cfg.ScanSchedule, loc)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	// Let pending broadcasts and e-mails finish
	dispatcher.Wait()
	log.Println("Server stopped")
}
