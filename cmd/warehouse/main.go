// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Command warehouse loads a flattened staging CSV into the DuckDB star
// schema at DUCKDB_PATH, replacing whatever it held.
//
//	warehouse -csv data/staging.csv
//	warehouse -export data/dataset.csv
//
// -export writes the joined training dataset back out in the staging
// layout, after any -csv load.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cantine/internal/config"
	"github.com/tomtom215/cantine/internal/database"
	"github.com/tomtom215/cantine/internal/logging"
)

func main() {
	csvPath := flag.String("csv", "", "staging CSV to load")
	exportPath := flag.String("export", "", "write the joined dataset to this CSV")
	flag.Parse()

	if *csvPath == "" && *exportPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())

	if err := run(cfg, *csvPath, *exportPath); err != nil {
		logging.Fatal().Err(err).Msg("Warehouse command failed")
	}
}

func run(cfg *config.Config, csvPath, exportPath string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if csvPath != "" {
		if err := db.CreateSchema(ctx); err != nil {
			return err
		}
		counts, err := db.LoadStaging(ctx, csvPath)
		if err != nil {
			return err
		}
		logging.Info().
			Str("csv", csvPath).
			Int64("facts", counts.Facts).
			Int64("sites", counts.Sites).
			Int64("days", counts.Days).
			Msg("Warehouse loaded")
	}

	if exportPath != "" {
		return export(ctx, db, exportPath)
	}
	return nil
}

func export(ctx context.Context, db *database.DB, path string) (err error) {
	records, err := db.LoadDataset(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := database.WriteStagingCSV(w, records); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	logging.Info().Str("path", path).Int("records", len(records)).Msg("Dataset exported")
	return nil
}
