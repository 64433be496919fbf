// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Command train fits the attendance pipeline on the warehouse and saves it
// to the model store, replacing any other stored version of the model.
//
//	train [-version 0.2.0] [-dry-run]
//
// The warehouse is read from DUCKDB_PATH; load it with cmd/warehouse first.
// Split date, outlier threshold and regressor come from the configuration.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cantine/internal/config"
	"github.com/tomtom215/cantine/internal/database"
	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/pipeline/storage"
	"github.com/tomtom215/cantine/internal/training"
)

func main() {
	version := flag.String("version", "", "version tag of the fitted pipeline (default: MODEL_VERSION or 0.1.0)")
	dryRun := flag.Bool("dry-run", false, "fit and score without saving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())

	if err := run(cfg, *version, *dryRun); err != nil {
		logging.Fatal().Err(err).Msg("Training failed")
	}
}

func run(cfg *config.Config, version string, dryRun bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tcfg, err := cfg.TrainingOptions()
	if err != nil {
		return err
	}
	if version != "" {
		tcfg.Version = version
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	records, err := db.LoadDataset(ctx)
	if closeErr := db.Close(); closeErr != nil {
		logging.Warn().Err(closeErr).Msg("Error closing warehouse")
	}
	if err != nil {
		return err
	}

	logging.Info().
		Int("records", len(records)).
		Time("split_date", tcfg.SplitDate).
		Str("regressor", tcfg.Pipeline.Regressor.Kind).
		Str("version", tcfg.Version).
		Msg("Training attendance pipeline")

	res, err := training.Run(ctx, tcfg, records)
	if err != nil {
		return err
	}

	if dryRun {
		logging.Info().Msg("Dry run, pipeline not saved")
		return nil
	}

	store, err := storage.NewStore(cfg.Model.Dir)
	if err != nil {
		return err
	}
	meta, err := store.Save(ctx, cfg.Model.Name, tcfg.Version, res.Pipeline)
	if err != nil {
		return err
	}
	logging.Info().
		Str("name", meta.Name).
		Str("version", meta.Version).
		Str("checksum", meta.Checksum).
		Int64("size_bytes", meta.SizeBytes).
		Msg("Pipeline stored")
	return nil
}
