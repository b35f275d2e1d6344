package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"viona/internal/api"
	"viona/internal/config"
	"viona/internal/events"
	"viona/internal/logging"
	"viona/internal/metrics"
	"viona/internal/models"
	"viona/internal/notification"
	"viona/internal/queue"
	"viona/internal/repository"
	"viona/internal/service"
	"viona/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "api-main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := repository.Open(ctx, cfg.Storage, logging.Component(baseLogger, "storage"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage")
		return err
	}
	defer storage.Close()

	eventBus := events.NewEventBus()
	var forwarder *queue.Publisher
	if cfg.Events.ForwardAMQP {
		forwarder = queue.NewPublisher(cfg.Events.AMQP.URL, logging.Component(baseLogger, "events"))
		eventBus.SubscribeAll(forwarder.ForwardEvents(cfg.Events.AMQP.Queue))
		logger.Info().Str("queue", cfg.Events.AMQP.Queue).Msg("forwarding domain events to AMQP")
	}

	startMetrics(ctx, cfg, logger)

	notifier := notification.NewNotifier(initSender(cfg, baseLogger), logging.Component(baseLogger, "notification"))
	notificationWorker := worker.NewNotificationWorker(
		notifier,
		storage.Redis,
		worker.RetryPolicyFromConfig(cfg.Notification.Retry),
		cfg.Notification.QueueSize,
		logging.Component(baseLogger, "notification-worker"),
	)
	if storage.Redis != nil {
		notificationWorker.SetDeadLetterKey(cfg.Storage.Redis.KeyPrefix + worker.DeadLetterKey)
	}

	store := service.NewBookingStore(storage.Docs, eventBus, logging.Component(baseLogger, "booking-store"))
	flow := service.NewBookingFlowService(
		storage.Docs,
		store,
		notificationWorker,
		eventBus,
		service.FlowOptions{
			CloseAfter:  cfg.Booking.CloseDelay,
			StrictPhone: cfg.Booking.StrictPhone,
			DefaultLang: models.Language(cfg.Booking.DefaultLang),
			SessionTTL:  cfg.Storage.SessionTTL,
		},
		logging.Component(baseLogger, "booking-flow"),
	)

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}
	httpServer := api.NewHTTPServer(cfg.API, store, flow, storage.Ping, baseLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		notificationWorker.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		flow.RunSessionJanitor(ctx, time.Hour)
	}()

	if storage.SQLite != nil {
		backups := repository.NewBackupService(storage.SQLite, cfg.Backup, logging.Component(baseLogger, "backup"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			backups.Start(ctx)
		}()
	}

	err = serve(ctx, httpServer, cfg, logger)
	stop()
	wg.Wait()
	if forwarder != nil {
		forwarder.Wait()
	}
	return err
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, closer, nil
}

func initSender(cfg *config.Config, logger *zerolog.Logger) notification.Sender {
	if cfg.Notification.Transport == config.TransportAMQP {
		publisher := queue.NewPublisher(cfg.Notification.AMQP.URL, logging.Component(logger, "amqp"))
		return notification.NewAMQPSender(publisher, cfg.Notification.AMQP.Queue)
	}
	return notification.NewLogSender(logging.Component(logger, "mail"))
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error().Err(serveErr).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return serveErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
