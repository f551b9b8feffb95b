package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"boutique/internal/amqp"
	"boutique/internal/cache"
	"boutique/internal/cli"
	apphttp "boutique/internal/http"
	"boutique/internal/log"
	"boutique/internal/services"
	"boutique/internal/store"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	// AMQP is optional; without it the worker's periodic sweep still mirrors records.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			logger.Warn("AMQP unavailable, records will sync on the next sweep", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	records := store.New(logger)
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := records.Load(loadCtx, be.Repository); err != nil {
			logger.Error("Initial load incomplete", log.FieldError, err)
		}
	}()

	authSvc, err := cli.NewAuthService(cfg, logger)
	if err != nil {
		logger.Error("Failed to configure accounts", log.FieldError, err)
		os.Exit(1)
	}
	caches := cache.NewManager(logger.Logger)
	caches.Register(authSvc.Revoked())
	caches.StartCleanup(ctx, 10*time.Minute)
	defer caches.Stop()

	svc := services.NewRecordService(be.Repository, records, publisher, logger)
	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		SecureCookies:  cfg.SecureCookies,
		TrustedProxies: cfg.TrustedProxyList(),
	}, svc, records, authSvc, logger)

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting boutique server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
