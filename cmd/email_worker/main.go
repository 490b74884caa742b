package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/swiftnotify/golang_services/internal/platform/config"
	"github.com/swiftnotify/golang_services/internal/platform/database"
	"github.com/swiftnotify/golang_services/internal/platform/logger"
	"github.com/swiftnotify/golang_services/internal/platform/messagebroker"

	"github.com/swiftnotify/golang_services/internal/email_service/adapters/smtpmail"
	"github.com/swiftnotify/golang_services/internal/email_service/app"
	"github.com/swiftnotify/golang_services/internal/email_service/repository/postgres"
)

const (
	serviceName = "email_worker"

	// ackWait must exceed the longest plausible fetch + SMTP round trip so the
	// broker does not redeliver a job that is still in flight.
	ackWait = 2 * time.Minute

	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Starting service...")
	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"nats_url", cfg.NATSURL,
		"queue_stream", cfg.EmailQueueStream,
		"queue_subject", cfg.EmailQueueSubject,
		"queue_durable", cfg.EmailQueueDurable,
		"smtp_host", cfg.SMTPHost,
		"smtp_port", cfg.SMTPPort,
		"metrics_port", cfg.EmailWorkerMetricsPort,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	if err := natsClient.EnsureStream(cfg.EmailQueueStream, []string{cfg.EmailQueueSubject}); err != nil {
		appLogger.Error("Failed to declare email queue stream", "error", err)
		os.Exit(1)
	}

	sub, err := natsClient.PullSubscribe(cfg.EmailQueueSubject, cfg.EmailQueueDurable, ackWait)
	if err != nil {
		appLogger.Error("Failed to bind durable queue consumer", "error", err)
		os.Exit(1)
	}

	mailer, err := smtpmail.NewMailer(smtpmail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		Sender:   cfg.EmailSender,
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize SMTP mailer", "error", err)
		os.Exit(1)
	}

	emailRepo := postgres.NewPgEmailRepository(dbPool, appLogger)
	processor := app.NewEmailProcessor(emailRepo, mailer, appLogger)
	consumer := app.NewEmailConsumer(processor, appLogger)

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.EmailWorkerMetricsPort),
		Handler: promhttp.Handler(),
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("Starting email queue consumer",
			"subject", cfg.EmailQueueSubject, "durable", cfg.EmailQueueDurable)
		return consumer.Run(groupCtx, sub)
	})

	g.Go(func() error {
		appLogger.Info("Starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	appLogger.Info("Service components initialized. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.Info("Received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		appLogger.Error("A critical component failed, initiating shutdown")
	}

	appLogger.Info("Attempting graceful shutdown...")
	mainCancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Error during graceful shutdown", "error", err)
	}

	appLogger.Info("Service shutdown complete.")
}
