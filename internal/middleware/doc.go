// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

/*
Package middleware provides HTTP middleware for the inference API.

Every middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: propagates or generates X-Request-ID and stores it in the
    context for logging.Ctx
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - AccessLog: one log line per request, warn for slow or 5xx responses
  - Compression: gzip for clients sending Accept-Encoding: gzip

The api package mounts them globally in this order:

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(middleware.DefaultSlowRequest))
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimw.Recoverer)

Compression is mounted on the /api/v1 group only.
*/
package middleware
