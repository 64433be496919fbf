// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/predict"
)

// Predictor serves prediction batches. *predict.Predictor implements it.
type Predictor interface {
	Predict(ctx context.Context, inputs []predict.Input) (*predict.Result, error)
	Version() string
}

// Info identifies the service in /health.
type Info struct {
	Name       string
	APIVersion string
}

// Handler contains dependencies for API handlers
type Handler struct {
	predictor    Predictor
	info         Info
	maxBodyBytes int64
}

// DefaultMaxBodyBytes caps request bodies when no limit is given.
const DefaultMaxBodyBytes int64 = 10 << 20

// NewHandler creates the API handler. maxBodyBytes <= 0 selects
// DefaultMaxBodyBytes.
func NewHandler(p Predictor, info Info, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		predictor:    p,
		info:         info,
		maxBodyBytes: maxBodyBytes,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Name         string `json:"name"`
	APIVersion   string `json:"api_version"`
	ModelVersion string `json:"model_version"`
}

// Health reports the service name and the API and model versions.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &HealthResponse{
		Name:         h.info.Name,
		APIVersion:   h.info.APIVersion,
		ModelVersion: h.predictor.Version(),
	})
}

const indexHTML = `<html>
<body style="padding: 10px;">
<h1>Canteen attendance prediction API</h1>
<div>POST a batch to <code>/api/v1/predict</code>; see <a href="/health">/health</a> for versions.</div>
</body>
</html>
`

// Index serves a short HTML landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, indexHTML)
}

// Predict decodes a batch and returns attendance predictions.
//
//	200: {"predictions": [...], "errors": null, "version": "..."}
//	400: {"predictions": null, "errors": {"inputs[0].date": "..."}, "version": "..."}
//
// A malformed body is a 400 in the same shape, keyed "body"; an oversized
// body is a 413; a pipeline failure is a 500 keyed "model".
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	log := logging.Ctx(r.Context())
	version := h.predictor.Version()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondPrediction(w, http.StatusRequestEntityTooLarge, failed(version, "body",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		respondPrediction(w, http.StatusBadRequest, failed(version, "body", "could not read request body"))
		return
	}

	var batch predict.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		log.Debug().Str("error", sanitizeLogValue(err.Error())).Msg("Malformed prediction request")
		respondPrediction(w, http.StatusBadRequest, failed(version, "body", "malformed JSON: "+err.Error()))
		return
	}

	res, err := h.predictor.Predict(r.Context(), batch.Inputs)
	if err != nil {
		log.Error().Err(err).Int("inputs", len(batch.Inputs)).Msg("Prediction failed")
		respondPrediction(w, http.StatusInternalServerError, failed(version, "model", "prediction failed"))
		return
	}
	if res.Errors != nil {
		log.Warn().Int("errors", len(res.Errors)).Msg("Prediction validation error")
		respondPrediction(w, http.StatusBadRequest, res)
		return
	}

	log.Info().
		Int("inputs", len(batch.Inputs)).
		Int("predictions", len(res.Predictions)).
		Msg("Prediction results")
	respondPrediction(w, http.StatusOK, res)
}

func failed(version, key, message string) *predict.Result {
	return &predict.Result{
		Errors:  map[string]string{key: message},
		Version: version,
	}
}

func respondPrediction(w http.ResponseWriter, status int, res *predict.Result) {
	respondJSON(w, status, res)
}

// NotFound and MethodNotAllowed keep error bodies in JSON.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "no such endpoint")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed on this endpoint")
}
