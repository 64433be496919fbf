// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

/*
Command server serves canteen attendance predictions over HTTP.

It loads one fitted pipeline from the model store at startup and exits if
none is found. Run cmd/train first.

	GET  /                 landing page
	GET  /health           name, api_version, model_version
	GET  /metrics          Prometheus metrics
	GET  /api/v1/health    same as /health, rate limited
	POST /api/v1/predict   {"inputs": [...]} -> {"predictions", "errors", "version"}

# Configuration

See package config. The most used variables:

	HTTP_HOST, HTTP_PORT      listen address (default 0.0.0.0:8000)
	MODEL_DIR, MODEL_NAME     where the pipeline is stored
	MODEL_VERSION             pin a version; empty loads the stored one
	MODEL_RELOAD_INTERVAL     poll the store and swap in retrained models
	CORS_ORIGINS              comma-separated allowed origins
	LOG_LEVEL, LOG_FORMAT     zerolog level and json|console

# Signals

SIGINT and SIGTERM stop the supervisor tree; in-flight requests get
HTTP_SHUTDOWN_TIMEOUT to finish.
*/
package main
