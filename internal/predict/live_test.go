// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package predict

import (
	"context"
	"testing"
)

func TestLiveSwap(t *testing.T) {
	first := newPredictor(t)

	retagged := *trainedPipeline(t)
	retagged.Version = "2.0.0"
	second, err := New(&retagged)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	live := NewLive(first)
	if live.Version() != "1.0.0" {
		t.Errorf("Version() = %q, want 1.0.0", live.Version())
	}

	if old := live.Swap(second); old != first {
		t.Error("Swap() did not return the replaced predictor")
	}
	if live.Current() != second {
		t.Error("Current() is not the swapped-in predictor")
	}

	res, err := live.Predict(context.Background(), []Input{scenario()})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if res.Version != "2.0.0" {
		t.Errorf("Result.Version = %q, want 2.0.0", res.Version)
	}
}
