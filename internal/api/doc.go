// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

/*
Package api is the HTTP boundary of the prediction service.

# Routes

	GET  /                  HTML landing page
	GET  /health            {"name", "api_version", "model_version"}
	GET  /metrics           Prometheus exposition
	GET  /api/v1/health     same as /health
	POST /api/v1/predict    batch prediction

Routes under /api/v1 are rate limited per client IP (go-chi/httprate),
bounded by a request timeout and gzip-compressed on request. CORS
(go-chi/cors) applies to every route so preflight requests are answered
before routing.

# Prediction responses

Every predict response has the same shape:

	{"predictions": [171.9, 88.2], "errors": null, "version": "0.1.0"}
	{"predictions": null, "errors": {"inputs[0].enrollment": "..."}, "version": "0.1.0"}

Status codes: 200 on success, 400 for validation errors and malformed
JSON, 413 for bodies over api.max_body_bytes, 500 when the pipeline itself
fails. Pipeline error details are logged, never returned.

Other errors (404, 405, 429) use ErrorResponse:

	{"code": "RATE_LIMITED", "message": "too many requests, retry later"}
*/
package api
