package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/willowtherapy/booking-platform/cmd/mainconfig"
	"github.com/willowtherapy/booking-platform/internal/agenda"
	"github.com/willowtherapy/booking-platform/internal/api/router"
	"github.com/willowtherapy/booking-platform/internal/app/bootstrap"
	"github.com/willowtherapy/booking-platform/internal/appointments"
	"github.com/willowtherapy/booking-platform/internal/availability"
	appconfig "github.com/willowtherapy/booking-platform/internal/config"
	"github.com/willowtherapy/booking-platform/internal/directory"
	"github.com/willowtherapy/booking-platform/internal/notify"
	"github.com/willowtherapy/booking-platform/internal/observability/metrics"
	"github.com/willowtherapy/booking-platform/internal/slots"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// AWS is only touched when a managed queue or SES email is configured.
	var awsCfg *aws.Config
	if !cfg.UseMemoryQueue || cfg.EmailProvider == "ses" {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = &loaded
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	// Directory and availability.
	dirStore := directory.NewStore(pool)
	availStore := availability.NewPostgresStore(pool)
	availService := availability.NewService(availStore, dirStore, logger)
	availHandler := availability.NewHandler(availService, dirStore, logger)

	// Slot resolution with optional Redis read-through cache.
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	slotCache := bootstrap.BuildSlotCache(redisClient, cfg, logger)

	apptRepo := appointments.NewPostgresRepository(pool)
	resolver := slots.NewResolver(availStore, apptRepo, slotCache, bookingMetrics, logger)
	slotsHandler := slots.NewHandler(resolver, dirStore, logger)

	// Notifications: dispatcher enqueues, worker drains into Postgres and email.
	notifyStore := notify.NewStore(pool)
	emailSender := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	dispatcher, worker := setupNotifications(cfg, awsCfg, notifyStore, dirStore, emailSender, bookingMetrics, logger)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	for i := 0; i < cfg.NotificationWorkers; i++ {
		worker.Start(workerCtx)
	}

	// Booking core.
	var invalidator appointments.SlotCache
	if slotCache != nil {
		invalidator = slotCache
	}
	scheduler := appointments.NewScheduler(apptRepo, dirStore, resolver, dispatcher, invalidator, bookingMetrics, logger)
	machine := appointments.NewStatusMachine(apptRepo, dirStore, dispatcher, invalidator, logger)
	apptHandler := appointments.NewHandler(scheduler, machine, apptRepo, dirStore, logger)

	// Provider agenda read model runs on database/sql.
	agendaDB := bootstrap.BuildAgendaDB(ctx, cfg, logger)
	if agendaDB != nil {
		defer func() { _ = agendaDB.Close() }()
	}
	agendaHandler := agenda.NewHandler(agendaDB, logger)

	notificationsHandler := notify.NewHandler(notifyStore, logger)

	r := router.New(&router.Config{
		Logger:               logger,
		AvailabilityHandler:  availHandler,
		SlotsHandler:         slotsHandler,
		AppointmentsHandler:  apptHandler,
		AgendaHandler:        agendaHandler,
		NotificationsHandler: notificationsHandler,
		MetricsHandler:       promhttp.Handler(),
		AuthJWTSecret:        cfg.AuthJWTSecret,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	stopWorkers()
	worker.Wait()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type notificationStore interface {
	Insert(ctx context.Context, n *notify.Notification) error
}

type clientLookup interface {
	GetClient(ctx context.Context, clientID string) (*directory.Client, error)
}

// setupNotifications selects the queue transport and wires the dispatcher and
// worker around it. The memory queue polls faster since it is in-process.
func setupNotifications(cfg *appconfig.Config, awsCfg *aws.Config, store notificationStore, clients clientLookup, email notify.EmailSender, m *metrics.BookingMetrics, logger *logging.Logger) (*notify.Dispatcher, *notify.Worker) {
	if cfg.UseMemoryQueue {
		queue := notify.NewMemoryQueue(64)
		return notify.NewDispatcher(queue, clients, logger),
			notify.NewWorker(queue, store, email, m, logger, notify.WithWaitSeconds(1))
	}
	queue := notify.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.NotificationQueueURL)
	return notify.NewDispatcher(queue, clients, logger),
		notify.NewWorker(queue, store, email, m, logger)
}
