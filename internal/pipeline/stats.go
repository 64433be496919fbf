// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN values of vals.
func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// nanMean is the mean of the non-NaN values, NaN when there are none.
func nanMean(vals []float64) float64 {
	p := present(vals)
	if len(p) == 0 {
		return math.NaN()
	}
	return stat.Mean(p, nil)
}

// nanStd is the sample (n-1) standard deviation of the non-NaN values. It is
// NaN for fewer than two values.
func nanStd(vals []float64) float64 {
	p := present(vals)
	if len(p) < 2 {
		return math.NaN()
	}
	return stat.StdDev(p, nil)
}

// nanMedian is the median of the non-NaN values, averaging the two middle
// values for an even count.
func nanMedian(vals []float64) float64 {
	p := present(vals)
	if len(p) == 0 {
		return math.NaN()
	}
	sort.Float64s(p)
	mid := len(p) / 2
	if len(p)%2 == 1 {
		return p[mid]
	}
	return (p[mid-1] + p[mid]) / 2
}

// checkCutoff returns a LeakageViolation for the first date at or after
// cutoff. A zero cutoff disables the check.
func checkCutoff(stage string, dates []time.Time, cutoff time.Time) error {
	if cutoff.IsZero() {
		return nil
	}
	for _, d := range dates {
		if !d.IsZero() && !d.Before(cutoff) {
			return &LeakageViolation{Stage: stage, Cutoff: cutoff, Date: d}
		}
	}
	return nil
}
