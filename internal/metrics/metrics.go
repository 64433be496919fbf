// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Inference Metrics
	PredictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_predictions_total",
			Help: "Total number of attendance predictions returned",
		},
	)

	PredictionRowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_prediction_rows_dropped_total",
			Help: "Input rows removed before prediction",
		},
		[]string{"reason"}, // "missing_value", "strike_day", "no_interpolation"
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_validation_failures_total",
			Help: "Inference inputs rejected by validation",
		},
		[]string{"field"},
	)

	// Pipeline Metrics
	UnseenGroups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_unseen_groups_total",
			Help: "Rows whose canteen/week group was not seen at fit time",
		},
	)

	UnseenCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_unseen_categories_total",
			Help: "Categorical values not seen at fit time, encoded with the global mean",
		},
		[]string{"column"},
	)

	// Training Metrics
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of a full training run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TrainingRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "training_rows",
			Help: "Rows in the last training run, by split",
		},
		[]string{"split"}, // "train", "test"
	)

	ModelScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_score",
			Help: "Evaluation scores of the last trained pipeline",
		},
		[]string{"split", "metric"}, // metric: "r2", "mae"
	)

	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_info",
			Help: "Loaded pipeline version (value is always 1)",
		},
		[]string{"version"},
	)

	ModelReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_reloads_total",
			Help: "Model store polls by outcome",
		},
		[]string{"result"}, // "swapped", "unchanged", "error"
	)
)

// RecordDBQuery records a query duration and, on failure, its error.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordTraining stores the outcome of one training run.
func RecordTraining(duration time.Duration, trainRows, testRows int, scores map[string]map[string]float64) {
	TrainingDuration.Observe(duration.Seconds())
	TrainingRows.WithLabelValues("train").Set(float64(trainRows))
	TrainingRows.WithLabelValues("test").Set(float64(testRows))
	for split, byMetric := range scores {
		for metric, v := range byMetric {
			ModelScore.WithLabelValues(split, metric).Set(v)
		}
	}
}

// SetModelVersion marks version as the loaded pipeline.
func SetModelVersion(version string) {
	ModelInfo.Reset()
	ModelInfo.WithLabelValues(version).Set(1)
}
