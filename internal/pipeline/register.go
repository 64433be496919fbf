// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import "encoding/gob"

// Concrete stage and regressor types travel behind interfaces in a
// persisted Pipeline, so gob needs them registered.
//
//nolint:gochecknoinits // gob registration must happen before any decode
func init() {
	gob.Register(&Pipeline{})
	gob.Register(&DatetimeFeatures{})
	gob.Register(&GroupStatistics{})
	gob.Register(&InterpolationImputer{})
	gob.Register(&MedianImputer{})
	gob.Register(&TargetEncoder{})
	gob.Register(&StandardScaler{})
	gob.Register(&Ridge{})
	gob.Register(&GradientBoosting{})
}
