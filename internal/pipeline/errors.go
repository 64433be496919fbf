// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFitted is returned when Transform or Predict runs before Fit.
	ErrNotFitted = errors.New("pipeline: not fitted")

	// ErrNoTarget is returned when a supervised stage is fitted on a frame
	// without its target column.
	ErrNoTarget = errors.New("pipeline: target column missing")

	// ErrMissingValue is returned when the regressor receives a NaN feature.
	ErrMissingValue = errors.New("pipeline: missing feature value")
)

// ConfigurationError reports a malformed stage or pipeline configuration.
// It is fatal: fit and load abort on it.
type ConfigurationError struct {
	Stage  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("pipeline: %s: invalid configuration: %s", e.Stage, e.Reason)
}

// LeakageViolation reports a row dated at or after the training cutoff
// reaching a stage that learns statistics.
type LeakageViolation struct {
	Stage  string
	Cutoff time.Time
	Date   time.Time
}

func (e *LeakageViolation) Error() string {
	return fmt.Sprintf("pipeline: %s: row dated %s is not before cutoff %s",
		e.Stage, e.Date.Format(time.DateOnly), e.Cutoff.Format(time.DateOnly))
}

func configErr(stage, format string, args ...any) error {
	return &ConfigurationError{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}
