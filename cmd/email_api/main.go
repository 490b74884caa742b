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

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/swiftnotify/golang_services/internal/platform/config"
	"github.com/swiftnotify/golang_services/internal/platform/database"
	"github.com/swiftnotify/golang_services/internal/platform/logger"
	"github.com/swiftnotify/golang_services/internal/platform/messagebroker"

	api_app "github.com/swiftnotify/golang_services/internal/email_api_service/app"
	transport_http "github.com/swiftnotify/golang_services/internal/email_api_service/transport/http"
	"github.com/swiftnotify/golang_services/internal/email_service/repository/postgres"
)

const (
	serviceName     = "email_api"
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
		"queue_subject", cfg.EmailQueueSubject,
		"api_port", cfg.EmailAPIPort,
		"metrics_port", cfg.EmailAPIMetricsPort,
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

	emailRepo := postgres.NewPgEmailRepository(dbPool, appLogger)
	emailService := api_app.NewEmailAppService(emailRepo, natsClient, cfg.EmailQueueSubject, appLogger)
	emailHandler := transport_http.NewEmailHandler(emailService, validator.New(), appLogger)

	router := chi.NewRouter()
	router.Use(chi_middleware.RequestID)
	router.Use(chi_middleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	emailHandler.RegisterRoutes(router)

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.EmailAPIPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.EmailAPIMetricsPort),
		Handler: promhttp.Handler(),
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("Starting HTTP API server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
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
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Error shutting down API server", "error", err)
		}
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
