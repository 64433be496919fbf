// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package predict

import (
	"context"
	"sync/atomic"
)

// Live holds the Predictor currently being served. Swap replaces it without
// disturbing batches already running on the old one.
type Live struct {
	current atomic.Pointer[Predictor]
}

// NewLive serves pr until the next Swap.
func NewLive(pr *Predictor) *Live {
	l := &Live{}
	l.current.Store(pr)
	return l
}

// Current returns the predictor serving new batches.
func (l *Live) Current() *Predictor { return l.current.Load() }

// Swap installs pr and returns the predictor it replaced.
func (l *Live) Swap(pr *Predictor) *Predictor { return l.current.Swap(pr) }

// Version is the version of the current predictor.
func (l *Live) Version() string { return l.Current().Version() }

// Predict runs the batch on the current predictor.
func (l *Live) Predict(ctx context.Context, inputs []Input) (*Result, error) {
	return l.Current().Predict(ctx, inputs)
}
