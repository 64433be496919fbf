// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Package predict serves attendance predictions from a fitted pipeline.
//
// A Predictor wraps one loaded pipeline and never modifies it, so a single
// Predictor is shared by every request. A call validates the whole batch
// first; any invalid field rejects the batch. Valid rows missing a value the
// pipeline cannot impute, and strike days, are removed before prediction.
// Predictions are returned on the attendance scale (the pipeline predicts
// its square root).
package predict

import (
	"context"
	"fmt"
	"slices"

	"github.com/tomtom215/cantine/internal/attendance"
	"github.com/tomtom215/cantine/internal/frame"
	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/metrics"
	"github.com/tomtom215/cantine/internal/pipeline"
	"github.com/tomtom215/cantine/internal/training"
	"github.com/tomtom215/cantine/internal/validation"
)

// Result is the outcome of one batch. Exactly one of Predictions and Errors
// is non-nil.
type Result struct {
	Predictions []float64         `json:"predictions"`
	Errors      map[string]string `json:"errors"`
	Version     string            `json:"version"`
}

// modelInputs are the request columns fed to the pipeline.
var modelInputs = append([]string{
	attendance.ColDate,
	attendance.ColForecast,
	attendance.ColCanteenID,
	attendance.ColSchoolYear,
	attendance.ColEnrollment,
	attendance.ColNeighborhood,
}, attendance.ContextColumns...)

// Predictor is an immutable wrapper around a fitted pipeline.
type Predictor struct {
	p        *pipeline.Pipeline
	required []string
}

// New wraps p, which must be fitted.
func New(p *pipeline.Pipeline) (*Predictor, error) {
	if p == nil || !p.Fitted || p.Regressor == nil {
		return nil, pipeline.ErrNotFitted
	}
	imputed := p.ImputedColumns()
	var required []string
	for _, col := range modelInputs {
		if !slices.Contains(imputed, col) {
			required = append(required, col)
		}
	}
	return &Predictor{p: p, required: required}, nil
}

// Version is the version of the wrapped pipeline.
func (pr *Predictor) Version() string { return pr.p.Version }

// Required lists the inputs whose absence drops a row.
func (pr *Predictor) Required() []string { return slices.Clone(pr.required) }

// Predict validates inputs and predicts attendance for the usable rows.
// Validation problems come back in Result.Errors with a nil error; the
// returned error is reserved for pipeline failures.
func (pr *Predictor) Predict(ctx context.Context, inputs []Input) (*Result, error) {
	log := logging.Ctx(ctx)
	res := &Result{Version: pr.p.Version}

	if verr := validation.ValidateStruct(&Batch{Inputs: inputs}); verr != nil {
		for _, e := range verr.Errors() {
			metrics.ValidationFailures.WithLabelValues(e.Field()).Inc()
		}
		res.Errors = verr.Fields()
		log.Debug().Int("errors", len(res.Errors)).Msg("Prediction batch rejected")
		return res, nil
	}

	records := make([]attendance.Record, len(inputs))
	for i := range inputs {
		records[i] = inputs[i].Record()
	}
	df, err := pr.usableRows(attendance.ToFrame(records, false))
	if err != nil {
		return nil, err
	}

	pred, err := pr.p.Predict(ctx, df)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if lost := df.Len() - len(pred); lost > 0 {
		metrics.PredictionRowsDropped.WithLabelValues("no_interpolation").Add(float64(lost))
	}

	res.Predictions = training.SquareTarget(pred)
	metrics.PredictionsTotal.Add(float64(len(res.Predictions)))
	log.Debug().
		Int("inputs", len(inputs)).
		Int("predictions", len(res.Predictions)).
		Str("version", res.Version).
		Msg("Prediction batch served")
	return res, nil
}

// usableRows drops rows missing a required input and strike days, then the
// strike flag itself.
func (pr *Predictor) usableRows(df *frame.Frame) (*frame.Frame, error) {
	keep := make([]bool, df.Len())
	for i := range keep {
		keep[i] = true
	}
	missing := 0
	for _, col := range pr.required {
		miss, err := df.Missing(col)
		if err != nil {
			return nil, err
		}
		for i, m := range miss {
			if m && keep[i] {
				keep[i] = false
				missing++
			}
		}
	}

	strike, err := df.Floats(attendance.ColStrikeDay)
	if err != nil {
		return nil, err
	}
	strikes := 0
	for i, s := range strike {
		if keep[i] && s == 1 {
			keep[i] = false
			strikes++
		}
	}
	if missing > 0 {
		metrics.PredictionRowsDropped.WithLabelValues("missing_value").Add(float64(missing))
	}
	if strikes > 0 {
		metrics.PredictionRowsDropped.WithLabelValues("strike_day").Add(float64(strikes))
	}

	out, err := df.Filter(keep)
	if err != nil {
		return nil, err
	}
	out.Drop(attendance.ColStrikeDay)
	return out, nil
}
