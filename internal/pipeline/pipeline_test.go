// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/tomtom215/cantine/internal/attendance"
	"github.com/tomtom215/cantine/internal/attendance/attendancetest"
	"github.com/tomtom215/cantine/internal/frame"
)

func smallConfig(kind string) Config {
	cfg := DefaultConfig()
	cfg.Regressor.Kind = kind
	cfg.Regressor.NEstimators = 30
	cfg.Regressor.MaxDepth = 4
	cfg.Regressor.MinSamplesLeaf = 10
	return cfg
}

func trainingFrame(t *testing.T) *frame.Frame {
	t.Helper()
	var records []attendance.Record
	for _, r := range attendancetest.History(attendancetest.DefaultOptions()) {
		if r.Actual > 0 && !r.StrikeDay {
			records = append(records, r)
		}
	}
	return attendance.ToFrame(records, true)
}

func meanAbs(pred, y []float64) float64 {
	var s float64
	for i := range y {
		s += math.Abs(pred[i] - y[i])
	}
	return s / float64(len(y))
}

func TestBuildFitPredict(t *testing.T) {
	train := trainingFrame(t)
	y, _ := train.Floats(attendance.ColActual)
	mean := nanMean(y)
	baseline := make([]float64, len(y))
	for i := range baseline {
		baseline[i] = mean
	}

	for _, kind := range []string{RegressorGBM, RegressorRidge} {
		t.Run(kind, func(t *testing.T) {
			p, err := Build(smallConfig(kind), "1.2.0")
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if _, err := p.Predict(context.Background(), train); !errors.Is(err, ErrNotFitted) {
				t.Errorf("Predict() before Fit error = %v, want ErrNotFitted", err)
			}
			if err := p.Fit(context.Background(), train); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if slices.Contains(p.Features, attendance.ColActual) {
				t.Error("target used as a feature")
			}
			if p.Version != "1.2.0" || p.TrainRows == 0 {
				t.Errorf("Version = %q, TrainRows = %d", p.Version, p.TrainRows)
			}

			// Complete training rows, so nothing is dropped by interpolation.
			complete, _ := train.Filter(notMissing(t, train, attendance.ColForecast))
			pred, err := p.Predict(context.Background(), complete)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			target, _ := complete.Floats(attendance.ColActual)
			if len(pred) != len(target) {
				t.Fatalf("len(pred) = %d, want %d", len(pred), len(target))
			}
			if meanAbs(pred, target) >= meanAbs(baseline[:len(target)], target) {
				t.Errorf("MAE %v not better than constant %v", meanAbs(pred, target), meanAbs(baseline[:len(target)], target))
			}

			one := attendance.ToFrame([]attendance.Record{attendancetest.Scenario()}, false)
			got, err := p.Predict(context.Background(), one)
			if err != nil {
				t.Fatalf("Predict(scenario) error = %v", err)
			}
			if len(got) != 1 || math.IsNaN(got[0]) || got[0] <= 0 {
				t.Errorf("Predict(scenario) = %v, want one positive value", got)
			}
		})
	}
}

func notMissing(t *testing.T, f *frame.Frame, col string) []bool {
	t.Helper()
	miss, err := f.Missing(col)
	if err != nil {
		t.Fatal(err)
	}
	keep := make([]bool, len(miss))
	for i, m := range miss {
		keep[i] = !m
	}
	return keep
}

func TestPipelineUnseenCanteen(t *testing.T) {
	p, err := Build(smallConfig(RegressorRidge), "test")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := p.Fit(context.Background(), trainingFrame(t)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	r := attendancetest.Scenario()
	r.CanteenID = "NOUVELLE ECOLE"
	r.Neighborhood = "Nowhere"
	got, err := p.Predict(context.Background(), attendance.ToFrame([]attendance.Record{r}, false))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(got) != 1 || math.IsNaN(got[0]) {
		t.Errorf("Predict() = %v, want one finite value", got)
	}
}

func TestPipelineGobRoundTrip(t *testing.T) {
	p, err := Build(smallConfig(RegressorGBM), "2.0.0")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := p.Fit(context.Background(), trainingFrame(t)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var loaded Pipeline
	if err := gob.NewDecoder(&buf).Decode(&loaded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	in := attendance.ToFrame([]attendance.Record{attendancetest.Scenario()}, false)
	want, _ := p.Predict(context.Background(), in)
	got, err := loaded.Predict(context.Background(), in)
	if err != nil {
		t.Fatalf("loaded Predict() error = %v", err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("loaded pipeline predicts %v, original %v", got, want)
	}
	if loaded.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", loaded.Version)
	}
}

func TestBuildRejectsLeakage(t *testing.T) {
	cfg := smallConfig(RegressorRidge)
	cfg.Cutoff = day(2018, 9, 1)
	p, err := Build(cfg, "test")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	var leak *LeakageViolation
	if err := p.Fit(context.Background(), trainingFrame(t)); !errors.As(err, &leak) {
		t.Fatalf("Fit() error = %v, want LeakageViolation", err)
	}
	if leak.Stage != "statistical_features" {
		t.Errorf("Stage = %q, want statistical_features", leak.Stage)
	}
}

func TestBuildConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"divisor", func(c *Config) { c.Divisor = "monthly" }},
		{"median columns", func(c *Config) { c.MedianColumns = nil }},
		{"categorical columns", func(c *Config) { c.CategoricalColumns = nil }},
		{"regressor kind", func(c *Config) { c.Regressor.Kind = "lightgbm" }},
		{"ridge lambda", func(c *Config) { c.Regressor.Kind = RegressorRidge; c.Regressor.Lambda = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := Build(cfg, "test")
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Build() error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	dates, _ := NewDatetimeFeatures("date", DivisorPeriod)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewBuilder("actual").Add("dates", dates).Add("dates", dates).Build()
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Build() error = %v, want ConfigurationError", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := NewBuilder("actual").Build(); err == nil {
			t.Error("Build() error = nil")
		}
	})

	t.Run("nested pipeline is a stage", func(t *testing.T) {
		inner, err := NewBuilder("actual").Add("dates", dates).Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		outer, err := NewBuilder("actual").Add("calendar", inner).Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		f := dateFrame(t, day(2018, 9, 3))
		if err := outer.Fit(context.Background(), f); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		out, err := outer.Transform(context.Background(), f)
		if err != nil {
			t.Fatalf("Transform() error = %v", err)
		}
		if !out.Has(ColWeek) {
			t.Error("nested stage output missing week column")
		}
	})
}

func TestImputedColumns(t *testing.T) {
	p, err := Build(DefaultConfig(), "test")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	got := p.ImputedColumns()
	for _, want := range []string{attendance.ColForecast, attendance.ColLongitude, attendance.ColCanteenID} {
		if !slices.Contains(got, want) {
			t.Errorf("ImputedColumns() missing %q", want)
		}
	}
	if slices.Contains(got, attendance.ColEnrollment) || slices.Contains(got, attendance.ColDate) {
		t.Errorf("ImputedColumns() = %v, must not include enrollment or date", got)
	}
}
