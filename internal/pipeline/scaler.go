// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"context"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/cantine/internal/frame"
)

// StandardScaler centers every float column (except the excluded ones) on
// its fit-time mean and divides by its population standard deviation. A
// constant column keeps a scale of 1.
type StandardScaler struct {
	Exclude []string

	Columns []string
	Means   []float64
	Scales  []float64
	Fitted  bool
}

// NewStandardScaler returns a scaler that leaves the excluded columns alone.
func NewStandardScaler(exclude ...string) *StandardScaler {
	return &StandardScaler{Exclude: exclude}
}

// Fit learns mean and scale per column, ignoring missing values.
func (s *StandardScaler) Fit(_ context.Context, df *frame.Frame) error {
	s.Columns, s.Means, s.Scales = nil, nil, nil
	for _, name := range df.FloatColumns() {
		if slices.Contains(s.Exclude, name) {
			continue
		}
		vals, _ := df.Floats(name)
		p := present(vals)
		mean, std := 0.0, 1.0
		if len(p) > 0 {
			mean, std = stat.PopMeanStdDev(p, nil)
		}
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Columns = append(s.Columns, name)
		s.Means = append(s.Means, mean)
		s.Scales = append(s.Scales, std)
	}
	s.Fitted = true
	return nil
}

// Transform scales the fitted columns. NaN stays NaN.
func (s *StandardScaler) Transform(_ context.Context, df *frame.Frame) (*frame.Frame, error) {
	if !s.Fitted {
		return nil, ErrNotFitted
	}
	out := df.Clone()
	for j, name := range s.Columns {
		vals, err := out.Floats(name)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = (v - s.Means[j]) / s.Scales[j]
		}
		if err := out.SetFloat(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}
