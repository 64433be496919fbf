// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Package pipeline implements the attendance feature and regression pipeline.
//
// A pipeline is an ordered list of named stages, each learning its parameters
// in Fit and applying them in Transform, followed by a regressor over the
// numeric feature columns. A Pipeline is itself a Stage, so sub-pipelines nest
// without special cases.
//
// Stages that learn statistics (group statistics, target encoding) only ever
// see training rows. When a cutoff is configured they reject any row dated at
// or after it with a LeakageViolation.
//
// Fitted pipelines are immutable by convention: Transform and Predict never
// modify learned parameters, so one fitted pipeline can serve concurrent
// requests.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/cantine/internal/frame"
	"github.com/tomtom215/cantine/internal/logging"
)

// Stage is one fit/transform step.
type Stage interface {
	// Fit learns the stage parameters from df. df may carry the target column.
	Fit(ctx context.Context, df *frame.Frame) error

	// Transform applies the learned parameters. It never modifies df and
	// never recomputes learned parameters.
	Transform(ctx context.Context, df *frame.Frame) (*frame.Frame, error)
}

// Step is a named stage.
type Step struct {
	Name  string
	Stage Stage
}

// Pipeline composes stages and an optional final regressor.
type Pipeline struct {
	// Version tags the fitted pipeline; it matches the package version.
	Version string

	// Target is the name of the target column, present only at fit time.
	Target string

	Steps     []Step
	Regressor Regressor

	// Features is the ordered list of columns fed to the regressor, frozen at fit.
	Features []string

	Fitted    bool
	TrainedAt time.Time
	TrainRows int
}

// Fit fits every stage in order on the output of the previous one, then the
// regressor on the remaining float columns (the target excluded).
func (p *Pipeline) Fit(ctx context.Context, df *frame.Frame) error {
	log := logging.With().Str("component", "pipeline").Logger()

	cur := df
	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := step.Stage.Fit(ctx, cur); err != nil {
			return fmt.Errorf("fit %s: %w", step.Name, err)
		}
		next, err := step.Stage.Transform(ctx, cur)
		if err != nil {
			return fmt.Errorf("transform %s: %w", step.Name, err)
		}
		log.Debug().
			Str("stage", step.Name).
			Int("rows_in", cur.Len()).
			Int("rows_out", next.Len()).
			Dur("duration", time.Since(start)).
			Msg("stage fitted")
		cur = next
	}

	if p.Regressor != nil {
		features := make([]string, 0, len(cur.FloatColumns()))
		for _, name := range cur.FloatColumns() {
			if name != p.Target {
				features = append(features, name)
			}
		}
		if len(features) == 0 {
			return configErr("regressor", "no numeric feature columns")
		}
		y, err := cur.Floats(p.Target)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoTarget, err)
		}

		keep := completeRows(cur, features, y)
		rows := 0
		for _, k := range keep {
			if k {
				rows++
			}
		}
		if dropped := cur.Len() - rows; dropped > 0 {
			log.Warn().Int("dropped", dropped).Msg("rows with missing features excluded from regression")
		}
		if rows == 0 {
			return fmt.Errorf("fit regressor: no complete rows out of %d", cur.Len())
		}
		complete, err := cur.Filter(keep)
		if err != nil {
			return err
		}
		X, err := designMatrix(complete, features)
		if err != nil {
			return err
		}
		target, _ := complete.Floats(p.Target)
		if err := p.Regressor.Fit(X, target); err != nil {
			return fmt.Errorf("fit regressor: %w", err)
		}
		p.Features = features
		p.TrainRows = rows
	}

	p.Fitted = true
	p.TrainedAt = time.Now().UTC()
	return nil
}

// Transform applies every stage in order.
func (p *Pipeline) Transform(ctx context.Context, df *frame.Frame) (*frame.Frame, error) {
	if !p.Fitted {
		return nil, ErrNotFitted
	}
	cur := df
	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := step.Stage.Transform(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", step.Name, err)
		}
		cur = next
	}
	return cur, nil
}

// Predict transforms df and runs the regressor. Stages may drop rows (see
// InterpolationImputer), so the result can be shorter than df.
func (p *Pipeline) Predict(ctx context.Context, df *frame.Frame) ([]float64, error) {
	pred, _, err := p.PredictFrame(ctx, df)
	return pred, err
}

// PredictFrame is Predict that also returns the transformed frame, whose rows
// line up with the predictions. Columns the stages pass through, such as the
// target during evaluation, can be read from it.
func (p *Pipeline) PredictFrame(ctx context.Context, df *frame.Frame) ([]float64, *frame.Frame, error) {
	if !p.Fitted || p.Regressor == nil {
		return nil, nil, ErrNotFitted
	}
	out, err := p.Transform(ctx, df)
	if err != nil {
		return nil, nil, err
	}
	if out.Len() == 0 {
		return []float64{}, out, nil
	}
	X, err := designMatrix(out, p.Features)
	if err != nil {
		return nil, nil, err
	}
	pred, err := p.Regressor.Predict(X)
	if err != nil {
		return nil, nil, err
	}
	return pred, out, nil
}

// ImputedColumns lists the columns some stage fills when missing.
func (p *Pipeline) ImputedColumns() []string {
	var cols []string
	for _, step := range p.Steps {
		if im, ok := step.Stage.(interface{ ImputedColumns() []string }); ok {
			cols = append(cols, im.ImputedColumns()...)
		}
	}
	return cols
}

// completeRows marks rows with no NaN among features and target.
func completeRows(df *frame.Frame, features []string, y []float64) []bool {
	keep := make([]bool, df.Len())
	for i := range keep {
		keep[i] = !math.IsNaN(y[i])
	}
	for _, name := range features {
		vals, _ := df.Floats(name)
		for i, v := range vals {
			if math.IsNaN(v) {
				keep[i] = false
			}
		}
	}
	return keep
}

func designMatrix(df *frame.Frame, features []string) (*mat.Dense, error) {
	X := mat.NewDense(df.Len(), len(features), nil)
	for j, name := range features {
		vals, err := df.Floats(name)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: column %q row %d", ErrMissingValue, name, i)
			}
			X.Set(i, j, v)
		}
	}
	return X, nil
}
