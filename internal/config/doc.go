// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

/*
Package config provides centralized configuration management for Cantine.

Configuration is layered with koanf:

 1. Struct defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, ./config.yaml or /etc/cantine/config.yaml
 3. Environment variables (highest priority)

Only the environment variables listed in envMappings are read; anything else
in the environment is ignored.

# Sections

  - server: HTTP listen address, timeouts, name reported by /health
  - database: DuckDB warehouse path and resource limits
  - logging: zerolog level, format and caller
  - pipeline: calendar encoding, target encoder smoothing, regressor
  - training: split date and outlier threshold
  - model: name, directory and version of the persisted pipeline
  - api: CORS origins, rate limit, request timeout, body size limit

# Environment Variables

Server:
  - HTTP_HOST (default: 0.0.0.0)
  - HTTP_PORT (default: 8000)
  - HTTP_TIMEOUT (default: 30s)

Warehouse:
  - DUCKDB_PATH (default: data/cantine.duckdb)
  - DUCKDB_MAX_MEMORY (default: 1GB)
  - DUCKDB_THREADS (default: 0, NumCPU)

Training:
  - SPLIT_DATE (default: 2019-09-01)
  - OUTLIER_N (default: 2)
  - REGRESSOR: gbm or ridge (default: gbm)
  - CYCLICAL_DIVISOR: period or batch_max (default: period)

Model:
  - MODEL_NAME (default: attendance_regression)
  - MODEL_DIR (default: data/models)
  - MODEL_VERSION (default: latest on load, 0.1.0 on save)
  - MODEL_RELOAD_INTERVAL (default: 0, no hot reload)

API:
  - CORS_ORIGINS: comma-separated (default: localhost ports 3000 and 8000)
  - RATE_LIMIT_REQS, RATE_LIMIT_WINDOW (default: 100 per 1m)
  - DISABLE_RATE_LIMIT (default: false)

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())
*/
package config
