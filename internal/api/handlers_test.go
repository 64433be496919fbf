// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package api

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cantine/internal/attendance/attendancetest"
	"github.com/tomtom215/cantine/internal/middleware"
	"github.com/tomtom215/cantine/internal/predict"
	"github.com/tomtom215/cantine/internal/training"
)

var (
	predictorOnce sync.Once
	testPredictor *predict.Predictor
	predictorErr  error
)

// trainedPredictor fits one small pipeline for the whole package.
func trainedPredictor(t *testing.T) *predict.Predictor {
	t.Helper()
	predictorOnce.Do(func() {
		cfg := training.DefaultConfig()
		cfg.SplitDate = time.Date(2018, time.September, 1, 0, 0, 0, 0, time.UTC)
		cfg.Version = "0.1.0"
		cfg.Pipeline.Regressor.NEstimators = 30
		cfg.Pipeline.Regressor.MaxDepth = 4
		cfg.Pipeline.Regressor.MinSamplesLeaf = 10
		res, err := training.Run(context.Background(), cfg, attendancetest.History(attendancetest.DefaultOptions()))
		if err != nil {
			predictorErr = err
			return
		}
		testPredictor, predictorErr = predict.New(res.Pipeline)
	})
	if predictorErr != nil {
		t.Fatalf("trained predictor: %v", predictorErr)
	}
	return testPredictor
}

// failingPredictor fails every batch as a broken pipeline would.
type failingPredictor struct{}

func (failingPredictor) Predict(context.Context, []predict.Input) (*predict.Result, error) {
	return nil, errors.New("regressor: feature count mismatch")
}

func (failingPredictor) Version() string { return "9.9.9" }

var testInfo = Info{Name: "Canteen Attendance Prediction API", APIVersion: "0.1.0"}

func newTestServer(t *testing.T, p Predictor, maxBody int64, mutate func(*ChiMiddlewareConfig)) http.Handler {
	t.Helper()
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(NewHandler(p, testInfo, maxBody), NewChiMiddleware(cfg)).SetupChi()
}

func scenarioBody(t *testing.T, mutate func(*predict.Input)) []byte {
	t.Helper()
	in := predict.InputFromRecord(attendancetest.Scenario())
	if mutate != nil {
		mutate(&in)
	}
	body, err := json.Marshal(predict.Batch{Inputs: []predict.Input{in}})
	if err != nil {
		t.Fatalf("marshal batch: %v", err)
	}
	return body
}

func postPredict(h http.Handler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// predictionBody keeps raw fields so null can be told apart from absent.
type predictionBody struct {
	Predictions json.RawMessage   `json:"predictions"`
	Errors      map[string]string `json:"errors"`
	Version     string            `json:"version"`
}

func decodePrediction(t *testing.T, rec *httptest.ResponseRecorder) predictionBody {
	t.Helper()
	var body predictionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, nil)

	for _, path := range []string{"/health", "/api/v1/health"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var got HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			want := HealthResponse{Name: testInfo.Name, APIVersion: "0.1.0", ModelVersion: "9.9.9"}
			if got != want {
				t.Errorf("health = %+v, want %+v", got, want)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/predict") {
		t.Errorf("index page does not point at the predict endpoint: %q", rec.Body.String())
	}
}

func TestPredictSuccess(t *testing.T) {
	h := newTestServer(t, trainedPredictor(t), 0, nil)
	rec := postPredict(h, scenarioBody(t, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodePrediction(t, rec)
	if body.Errors != nil {
		t.Errorf("errors = %v, want null", body.Errors)
	}
	if body.Version != "0.1.0" {
		t.Errorf("version = %q, want 0.1.0", body.Version)
	}
	var preds []float64
	if err := json.Unmarshal(body.Predictions, &preds); err != nil {
		t.Fatalf("decode predictions: %v", err)
	}
	if len(preds) != 1 || math.IsNaN(preds[0]) || preds[0] <= 0 {
		t.Errorf("predictions = %v, want one positive value", preds)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response is missing the request id header")
	}
}

func TestPredictRejections(t *testing.T) {
	tests := []struct {
		name      string
		predictor func(t *testing.T) Predictor
		maxBody   int64
		body      func(t *testing.T) []byte
		status    int
		errorKey  string
	}{
		{
			name:      "invalid enrollment",
			predictor: func(t *testing.T) Predictor { return trainedPredictor(t) },
			body: func(t *testing.T) []byte {
				return scenarioBody(t, func(in *predict.Input) {
					zero := 0.0
					in.Enrollment = &zero
				})
			},
			status:   http.StatusBadRequest,
			errorKey: "inputs[0].enrollment",
		},
		{
			name:      "fractional enrollment",
			predictor: func(t *testing.T) Predictor { return trainedPredictor(t) },
			body: func(*testing.T) []byte {
				return []byte(`{"inputs": [{"date": "2018-09-03", "enrollment": 201.5}]}`)
			},
			status:   http.StatusBadRequest,
			errorKey: "inputs[0].enrollment",
		},
		{
			name:      "empty batch",
			predictor: func(t *testing.T) Predictor { return trainedPredictor(t) },
			body:      func(*testing.T) []byte { return []byte(`{"inputs":[]}`) },
			status:    http.StatusBadRequest,
			errorKey:  "inputs",
		},
		{
			name:      "malformed json",
			predictor: func(*testing.T) Predictor { return failingPredictor{} },
			body:      func(*testing.T) []byte { return []byte(`{"inputs": [`) },
			status:    http.StatusBadRequest,
			errorKey:  "body",
		},
		{
			name:      "wrong type",
			predictor: func(*testing.T) Predictor { return failingPredictor{} },
			body:      func(*testing.T) []byte { return []byte(`{"inputs": [{"enrollment": "many"}]}`) },
			status:    http.StatusBadRequest,
			errorKey:  "body",
		},
		{
			name:      "body too large",
			predictor: func(*testing.T) Predictor { return failingPredictor{} },
			maxBody:   32,
			body: func(*testing.T) []byte {
				return []byte(`{"inputs": [{"canteen_id": "` + strings.Repeat("A", 64) + `"}]}`)
			},
			status:   http.StatusRequestEntityTooLarge,
			errorKey: "body",
		},
		{
			name:      "pipeline failure",
			predictor: func(*testing.T) Predictor { return failingPredictor{} },
			body:      func(t *testing.T) []byte { return scenarioBody(t, nil) },
			status:    http.StatusInternalServerError,
			errorKey:  "model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.predictor(t), tt.maxBody, nil)
			rec := postPredict(h, tt.body(t))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			body := decodePrediction(t, rec)
			if string(body.Predictions) != "null" {
				t.Errorf("predictions = %s, want null", body.Predictions)
			}
			if _, ok := body.Errors[tt.errorKey]; !ok {
				t.Errorf("errors = %v, want key %q", body.Errors, tt.errorKey)
			}
			if body.Version == "" {
				t.Error("version is empty")
			}
		})
	}
}

func TestPredictPipelineErrorIsNotLeaked(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, nil)
	rec := postPredict(h, scenarioBody(t, nil))
	if strings.Contains(rec.Body.String(), "feature count") {
		t.Errorf("internal error leaked to client: %s", rec.Body.String())
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, nil)

	tests := []struct {
		method, path string
		status       int
		code         string
	}{
		{http.MethodGet, "/api/v1/nothing", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodGet, "/api/v1/predict", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}
