package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cartena/fulfillment-system/order-service/config"
	"github.com/cartena/fulfillment-system/order-service/handlers"
	"github.com/cartena/fulfillment-system/shared/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "order-service").Logger()

	cfg, err := config.ReadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting order service")

	ctx := context.Background()

	tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telemetry.NewConfig(cfg.ServiceName, "1.0.0", cfg.OTLPEndpoint))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer telemetryShutdown()

	deps, err := config.BuildDependencies(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing dependencies")
		}
	}()

	// Consume shipment-tracking events until shutdown
	subscriberCtx, stopSubscriber := context.WithCancel(ctx)
	defer stopSubscriber()
	go func() {
		if err := deps.EventSubscriber.Run(subscriberCtx, deps.ShippingStatusHandler); err != nil && subscriberCtx.Err() == nil {
			logger.Error().Err(err).Msg("event subscriber stopped")
		}
	}()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(deps, tel),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down order service")
	stopSubscriber()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("order service stopped")
}

func setupRouter(deps *config.Dependencies, tel *telemetry.Telemetry) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(telemetry.Middleware(tel))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", handlers.NewMetricsHandler())

	deps.OrderHandlers.RegisterRoutes(r)

	return r
}
