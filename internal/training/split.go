// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package training

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/cantine/internal/attendance"
	"github.com/tomtom215/cantine/internal/frame"
)

// Split is a temporal train/test partition. X frames no longer carry the
// target column.
type Split struct {
	XTrain *frame.Frame
	YTrain []float64
	XTest  *frame.Frame
	YTest  []float64
}

// SplitByDate puts rows dated before cutoff in the training set and the rest
// in the test set. Every row lands in exactly one side.
func SplitByDate(df *frame.Frame, cutoff time.Time, target string) (*Split, error) {
	if cutoff.IsZero() {
		return nil, fmt.Errorf("split date is not set")
	}
	dates, err := df.Times(attendance.ColDate)
	if err != nil {
		return nil, err
	}
	if _, err := df.Floats(target); err != nil {
		return nil, err
	}

	train := make([]bool, len(dates))
	test := make([]bool, len(dates))
	for i, d := range dates {
		if d.IsZero() {
			return nil, fmt.Errorf("row %d has no date", i)
		}
		train[i] = d.Before(cutoff)
		test[i] = !train[i]
	}

	s := &Split{}
	s.XTrain, s.YTrain, err = separate(df, train, target)
	if err != nil {
		return nil, err
	}
	s.XTest, s.YTest, err = separate(df, test, target)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func separate(df *frame.Frame, keep []bool, target string) (*frame.Frame, []float64, error) {
	part, err := df.Filter(keep)
	if err != nil {
		return nil, nil, err
	}
	y, err := part.Floats(target)
	if err != nil {
		return nil, nil, err
	}
	part.Drop(target)
	return part, y, nil
}

// SqrtTarget returns the square root of every target value.
func SqrtTarget(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = math.Sqrt(v)
	}
	return out
}

// SquareTarget inverts SqrtTarget.
func SquareTarget(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v * v
	}
	return out
}
