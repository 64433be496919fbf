// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package training

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/cantine/internal/attendance"
	"github.com/tomtom215/cantine/internal/frame"
)

// Outlier flag columns added by TagOutliers. Values are 0 or 1.
const (
	ColUpperOutlier = "upper_outlier"
	ColLowerOutlier = "lower_outlier"
)

type bounds struct{ lower, upper float64 }

// TagOutliers flags rows whose target lies more than n sample standard
// deviations from the mean of their (canteen, school year) group.
//
// Zero and missing targets are left out of the group statistics but still
// receive flags against their group's bounds. A group with fewer than two
// usable values has NaN bounds and flags nothing. No row is dropped.
func TagOutliers(df *frame.Frame, target string, n float64) (*frame.Frame, error) {
	return TagOutliersBefore(df, target, n, time.Time{})
}

// TagOutliersBefore is TagOutliers with the group bounds learned only from
// rows dated before cutoff. The bounds are then applied to every row, so
// rows on or after cutoff are flagged but never move a bound. Rows in a
// group with no earlier rows are not flagged. A zero cutoff learns from all
// rows.
func TagOutliersBefore(df *frame.Frame, target string, n float64, cutoff time.Time) (*frame.Frame, error) {
	if n < 0 || math.IsNaN(n) {
		return nil, fmt.Errorf("outlier threshold must be non-negative, got %v", n)
	}
	y, err := df.Floats(target)
	if err != nil {
		return nil, err
	}
	canteens, err := df.Strings(attendance.ColCanteenID)
	if err != nil {
		return nil, err
	}
	years, err := df.Strings(attendance.ColSchoolYear)
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	if !cutoff.IsZero() {
		if dates, err = df.Times(attendance.ColDate); err != nil {
			return nil, err
		}
	}

	samples := make(map[[2]string][]float64)
	for i, v := range y {
		if v == 0 || math.IsNaN(v) {
			continue
		}
		if dates != nil && !dates[i].Before(cutoff) {
			continue
		}
		key := [2]string{canteens[i], years[i]}
		samples[key] = append(samples[key], v)
	}

	groupBounds := make(map[[2]string]bounds, len(samples))
	for key, vals := range samples {
		b := bounds{lower: math.NaN(), upper: math.NaN()}
		if len(vals) >= 2 {
			mean, std := stat.MeanStdDev(vals, nil)
			b = bounds{lower: mean - n*std, upper: mean + n*std}
		}
		groupBounds[key] = b
	}

	upper := make([]float64, df.Len())
	lower := make([]float64, df.Len())
	for i, v := range y {
		b, ok := groupBounds[[2]string{canteens[i], years[i]}]
		if !ok {
			continue
		}
		// Comparisons against NaN are false, so NaN bounds and NaN targets
		// are never flagged.
		if v > b.upper {
			upper[i] = 1
		}
		if v < b.lower {
			lower[i] = 1
		}
	}

	out := df.Clone()
	if err := out.SetFloat(ColUpperOutlier, upper); err != nil {
		return nil, err
	}
	if err := out.SetFloat(ColLowerOutlier, lower); err != nil {
		return nil, err
	}
	return out, nil
}
