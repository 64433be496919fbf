// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Package training turns warehouse records into a fitted attendance pipeline.
//
// Run tags outliers, removes the rows the model is not meant to learn from
// (strike days, days without service, outliers and missing targets), splits
// by date, fits on the square root of attendance and scores the result on
// both sides of the split.
package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/cantine/internal/attendance"
	"github.com/tomtom215/cantine/internal/frame"
	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/metrics"
	"github.com/tomtom215/cantine/internal/pipeline"
)

// ErrNoTrainingRows is returned when nothing is left to fit on.
var ErrNoTrainingRows = errors.New("training: no rows before the split date")

// Config controls one training run.
type Config struct {
	// SplitDate separates training rows (before) from test rows (on or after).
	SplitDate time.Time

	// OutlierN is the outlier threshold in standard deviations. Default: 2.
	OutlierN float64

	// Version tags the fitted pipeline.
	Version string

	Pipeline pipeline.Config
}

// DefaultConfig splits at the start of the 2019-2020 school year.
func DefaultConfig() Config {
	return Config{
		SplitDate: time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC),
		OutlierN:  2,
		Version:   "0.1.0",
		Pipeline:  pipeline.DefaultConfig(),
	}
}

// Scores are evaluated on the attendance scale.
type Scores struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	Rows int     `json:"rows"`
}

// Result is a fitted pipeline and how well it does.
type Result struct {
	Pipeline *pipeline.Pipeline
	Train    Scores
	Test     Scores
	Dropped  int
	Duration time.Duration
}

// Run fits a pipeline on records. Any stage error aborts the run; nothing is
// returned half fitted.
func Run(ctx context.Context, cfg Config, records []attendance.Record) (*Result, error) {
	start := time.Now()
	log := logging.With().Str("component", "training").Str("version", cfg.Version).Logger()

	df, dropped, err := Prepare(attendance.ToFrame(records, true), cfg.OutlierN, cfg.SplitDate)
	if err != nil {
		return nil, err
	}
	log.Info().Int("records", len(records)).Int("dropped", dropped).Msg("Prepared training data")

	split, err := SplitByDate(df, cfg.SplitDate, attendance.ColActual)
	if err != nil {
		return nil, err
	}
	if split.XTrain.Len() == 0 {
		return nil, ErrNoTrainingRows
	}

	pcfg := cfg.Pipeline
	pcfg.Cutoff = cfg.SplitDate
	p, err := pipeline.Build(pcfg, cfg.Version)
	if err != nil {
		return nil, err
	}

	fitFrame := split.XTrain.Clone()
	if err := fitFrame.SetFloat(attendance.ColActual, SqrtTarget(split.YTrain)); err != nil {
		return nil, err
	}
	if err := p.Fit(ctx, fitFrame); err != nil {
		return nil, fmt.Errorf("fit pipeline: %w", err)
	}

	res := &Result{Pipeline: p, Dropped: dropped}
	if res.Train, err = Evaluate(ctx, p, split.XTrain, split.YTrain); err != nil {
		return nil, fmt.Errorf("score training set: %w", err)
	}
	if split.XTest.Len() > 0 {
		if res.Test, err = Evaluate(ctx, p, split.XTest, split.YTest); err != nil {
			return nil, fmt.Errorf("score test set: %w", err)
		}
	} else {
		log.Warn().Time("split_date", cfg.SplitDate).Msg("No rows after the split date, test scores left empty")
	}
	res.Duration = time.Since(start)

	metrics.RecordTraining(res.Duration, split.XTrain.Len(), split.XTest.Len(), map[string]map[string]float64{
		"train": {"r2": res.Train.R2, "mae": res.Train.MAE},
		"test":  {"r2": res.Test.R2, "mae": res.Test.MAE},
	})
	log.Info().
		Int("train_rows", res.Train.Rows).
		Float64("train_r2", res.Train.R2).
		Float64("train_mae", res.Train.MAE).
		Int("test_rows", res.Test.Rows).
		Float64("test_r2", res.Test.R2).
		Float64("test_mae", res.Test.MAE).
		Dur("duration", res.Duration).
		Msg("Training complete")
	return res, nil
}

// Prepare tags outliers with threshold n, using bounds learned from rows
// dated before cutoff, and removes strike days, days with zero or missing
// attendance and outliers. The strike and outlier columns are dropped from
// the result. It returns the number of rows removed.
func Prepare(df *frame.Frame, n float64, cutoff time.Time) (*frame.Frame, int, error) {
	tagged, err := TagOutliersBefore(df, attendance.ColActual, n, cutoff)
	if err != nil {
		return nil, 0, err
	}
	y, _ := tagged.Floats(attendance.ColActual)
	strike, err := tagged.Floats(attendance.ColStrikeDay)
	if err != nil {
		return nil, 0, err
	}
	upper, _ := tagged.Floats(ColUpperOutlier)
	lower, _ := tagged.Floats(ColLowerOutlier)

	keep := make([]bool, tagged.Len())
	dropped := 0
	for i := range keep {
		keep[i] = strike[i] != 1 && y[i] != 0 && !math.IsNaN(y[i]) && upper[i] != 1 && lower[i] != 1
		if !keep[i] {
			dropped++
		}
	}
	out, err := tagged.Filter(keep)
	if err != nil {
		return nil, 0, err
	}
	out.Drop(attendance.ColStrikeDay, ColUpperOutlier, ColLowerOutlier)
	return out, dropped, nil
}

// Evaluate predicts X and compares the squared predictions with y. Rows the
// pipeline drops are left out of the scores.
func Evaluate(ctx context.Context, p *pipeline.Pipeline, X *frame.Frame, y []float64) (Scores, error) {
	df := X.Clone()
	if err := df.SetFloat(attendance.ColActual, y); err != nil {
		return Scores{}, err
	}
	pred, out, err := p.PredictFrame(ctx, df)
	if err != nil {
		return Scores{}, err
	}
	if len(pred) == 0 {
		return Scores{}, nil
	}
	actual, err := out.Floats(attendance.ColActual)
	if err != nil {
		return Scores{}, err
	}
	pred = SquareTarget(pred)

	var abs float64
	for i := range pred {
		abs += math.Abs(pred[i] - actual[i])
	}
	return Scores{
		R2:   stat.RSquaredFrom(pred, actual, nil),
		MAE:  abs / float64(len(pred)),
		Rows: len(pred),
	}, nil
}
