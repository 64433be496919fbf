// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cantine/internal/api"
	"github.com/tomtom215/cantine/internal/config"
	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/metrics"
	"github.com/tomtom215/cantine/internal/pipeline/storage"
	"github.com/tomtom215/cantine/internal/predict"
	"github.com/tomtom215/cantine/internal/supervisor"
	"github.com/tomtom215/cantine/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())

	logging.Info().
		Str("model", cfg.Model.Name).
		Str("model_dir", cfg.Model.Dir).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting canteen attendance prediction server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStore(cfg.Model.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open model store")
	}

	// Missing model is fatal: there is nothing to serve.
	p, meta, err := store.Load(ctx, cfg.Model.Name, cfg.Model.Version)
	if err != nil {
		logging.Fatal().Err(err).Str("model", cfg.Model.Name).Msg("Failed to load model")
	}
	pr, err := predict.New(p)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to wrap model")
	}
	live := predict.NewLive(pr)
	metrics.SetModelVersion(p.Version)
	logging.Info().
		Str("version", meta.Version).
		Time("trained_at", meta.TrainedAt).
		Int("train_rows", meta.TrainRows).
		Strs("required_inputs", pr.Required()).
		Msg("Model loaded")

	handler := api.NewHandler(live, api.Info{
		Name:       cfg.Server.Name,
		APIVersion: cfg.Server.APIVersion,
	}, cfg.API.MaxBodyBytes)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.API)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// sutureslog needs slog; the adapter forwards to zerolog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Model.ReloadInterval > 0 && cfg.Model.Version == "" {
		tree.AddModelService(services.NewModelReloadService(store, live, cfg.Model.Name, cfg.Model.ReloadInterval))
		logging.Info().Dur("interval", cfg.Model.ReloadInterval).Msg("Model reload enabled")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report only, shutdown already done
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Server stopped")
}
