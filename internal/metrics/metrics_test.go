// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package metrics

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		err       error
		wantErr   string
	}{
		{
			name:      "successful load",
			operation: "INSERT",
			table:     "fact_attendance",
		},
		{
			name:      "short error",
			operation: "SELECT",
			table:     "dim_site",
			err:       errors.New("connection refused"),
			wantErr:   "connection refused",
		},
		{
			name:      "long error truncated to 50 chars",
			operation: "SELECT",
			table:     "dim_calendar",
			err:       errors.New(strings.Repeat("x", 80)),
			wantErr:   strings.Repeat("x", 50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, tt.table, 10*time.Millisecond, tt.err)
			if tt.err == nil {
				return
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantErr))
			if got < 1 {
				t.Errorf("error counter = %v, want >= 1", got)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/predict", "200"))
	RecordAPIRequest("POST", "/api/v1/predict", "200", 20*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/predict", "200"))
	if after != before+1 {
		t.Errorf("api_requests_total = %v, want %v", after, before+1)
	}
}

func TestTrackActiveRequestConcurrent(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("api_active_requests = %v, want %v", got, start)
	}
}

func TestRecordTraining(t *testing.T) {
	RecordTraining(3*time.Second, 1200, 300, map[string]map[string]float64{
		"train": {"r2": 0.91, "mae": 7.5},
		"test":  {"r2": 0.84, "mae": 9.1},
	})

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"train rows", TrainingRows.WithLabelValues("train"), 1200},
		{"test rows", TrainingRows.WithLabelValues("test"), 300},
		{"test r2", ModelScore.WithLabelValues("test", "r2"), 0.84},
		{"train mae", ModelScore.WithLabelValues("train", "mae"), 7.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetModelVersion(t *testing.T) {
	SetModelVersion("0.9.0")
	SetModelVersion("1.0.0")

	if got := testutil.CollectAndCount(ModelInfo); got != 1 {
		t.Errorf("model_info series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(ModelInfo.WithLabelValues("1.0.0")); got != 1 {
		t.Errorf("model_info{version=1.0.0} = %v, want 1", got)
	}
}

func TestMetricGathering(t *testing.T) {
	UnseenGroups.Add(1)
	UnseenCategories.WithLabelValues("canteen_id").Inc()
	PredictionsTotal.Inc()

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		// Info gauges are allowed without a unit suffix.
		if strings.HasPrefix(p.Metric, "model_info") {
			continue
		}
		t.Errorf("lint problem in %s: %s", p.Metric, p.Text)
	}
}
