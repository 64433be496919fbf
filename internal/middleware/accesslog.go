// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/cantine/internal/logging"
)

// DefaultSlowRequest is the latency above which requests are logged at warn.
const DefaultSlowRequest = time.Second

// AccessLog logs one line per request through the request-scoped logger.
// Requests slower than slow, and 5xx responses, are logged at warn.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			logger := logging.Ctx(r.Context())
			event := logger.Info()
			switch {
			case wrapper.statusCode >= http.StatusInternalServerError:
				event = logger.Warn()
			case duration > slow:
				event = logger.Warn().Bool("slow", true)
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapper.statusCode).
				Int64("duration_ms", duration.Milliseconds()).
				Msg("Request handled")
		})
	}
}
