// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

/*
Package metrics provides Prometheus metrics collection and export.

All collectors are registered on the default registry at package init via
promauto and are exposed by the server at /metrics:

	curl http://localhost:8000/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)

Inference Metrics:
  - attendance_predictions_total: Predictions returned (counter)
  - attendance_prediction_rows_dropped_total: Rows removed before prediction (counter)
    Labels: reason
  - attendance_validation_failures_total: Rejected inputs (counter)
    Labels: field

Pipeline Metrics:
  - pipeline_unseen_groups_total: Rows with an unknown canteen/week group (counter)
  - pipeline_unseen_categories_total: Unknown categorical values (counter)
    Labels: column

Training Metrics:
  - training_duration_seconds: Training run duration (histogram)
  - training_rows: Rows per split in the last run (gauge)
  - model_score: R² and MAE per split (gauge)
  - model_info: Loaded pipeline version (gauge)

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

# Thread Safety

All metric operations are safe for concurrent use.
*/
package metrics
