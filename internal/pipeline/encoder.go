// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/tomtom215/cantine/internal/frame"
	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/metrics"
)

// DefaultSmoothing is the weight of the global mean in the encoding.
const DefaultSmoothing = 10

// TargetEncoder replaces categorical columns with a smoothed mean of the
// target per level:
//
//	(count*mean + smoothing*global) / (count + smoothing)
//
// Levels unseen at fit time, and empty values, encode to the global mean.
type TargetEncoder struct {
	Columns    []string
	Target     string
	Smoothing  float64
	DateColumn string
	Cutoff     time.Time

	Global float64
	Levels map[string]map[string]float64
	Fitted bool
}

// NewTargetEncoder validates the configuration.
func NewTargetEncoder(columns []string, target string, smoothing float64) (*TargetEncoder, error) {
	if len(columns) == 0 {
		return nil, configErr("categ_imputation", "column list is empty")
	}
	if target == "" {
		return nil, configErr("categ_imputation", "target column name is empty")
	}
	if smoothing < 0 || math.IsNaN(smoothing) {
		return nil, configErr("categ_imputation", "smoothing must be non-negative, got %v", smoothing)
	}
	return &TargetEncoder{
		Columns:   append([]string(nil), columns...),
		Target:    target,
		Smoothing: smoothing,
	}, nil
}

// ImputedColumns reports the columns this stage fills.
func (e *TargetEncoder) ImputedColumns() []string { return e.Columns }

// Fit learns the per-level encodings from rows with a known target.
func (e *TargetEncoder) Fit(_ context.Context, df *frame.Frame) error {
	if e.DateColumn != "" {
		dates, err := df.Times(e.DateColumn)
		if err != nil {
			return err
		}
		if err := checkCutoff("categ_imputation", dates, e.Cutoff); err != nil {
			return err
		}
	}
	y, err := df.Floats(e.Target)
	if err != nil {
		return ErrNoTarget
	}

	global := nanMean(y)
	if math.IsNaN(global) {
		return configErr("categ_imputation", "target %q has no values", e.Target)
	}

	levels := make(map[string]map[string]float64, len(e.Columns))
	for _, col := range e.Columns {
		vals, err := df.Strings(col)
		if err != nil {
			return configErr("categ_imputation", "column %q: %v", col, err)
		}
		sums := make(map[string]float64)
		counts := make(map[string]float64)
		for i, v := range vals {
			if v == "" || math.IsNaN(y[i]) {
				continue
			}
			sums[v] += y[i]
			counts[v]++
		}
		enc := make(map[string]float64, len(counts))
		for level, n := range counts {
			mean := sums[level] / n
			enc[level] = (n*mean + e.Smoothing*global) / (n + e.Smoothing)
		}
		levels[col] = enc
	}

	e.Global = global
	e.Levels = levels
	e.Fitted = true
	return nil
}

// Transform swaps each categorical column for its encoded float column.
func (e *TargetEncoder) Transform(_ context.Context, df *frame.Frame) (*frame.Frame, error) {
	if !e.Fitted {
		return nil, ErrNotFitted
	}
	out := df.Clone()
	for _, col := range e.Columns {
		vals, err := df.Strings(col)
		if err != nil {
			return nil, err
		}
		enc := e.Levels[col]
		encoded := make([]float64, len(vals))
		unseen := 0
		for i, v := range vals {
			x, ok := enc[v]
			if !ok {
				x = e.Global
				if v != "" {
					unseen++
				}
			}
			encoded[i] = x
		}
		if unseen > 0 {
			metrics.UnseenCategories.WithLabelValues(col).Add(float64(unseen))
			logging.Debug().
				Str("stage", "categ_imputation").
				Str("column", col).
				Int("rows", unseen).
				Msg("unseen categories encoded with the global mean")
		}
		if err := out.SetFloat(col, encoded); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Encode returns the encoding of one level, falling back to the global mean.
func (e *TargetEncoder) Encode(column, level string) float64 {
	if x, ok := e.Levels[column][level]; ok {
		return x
	}
	return e.Global
}
