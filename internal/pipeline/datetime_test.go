// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/cantine/internal/frame"
)

func dateFrame(t *testing.T, dates ...time.Time) *frame.Frame {
	t.Helper()
	f := frame.New(len(dates))
	if err := f.SetTime("date", dates); err != nil {
		t.Fatalf("SetTime() error = %v", err)
	}
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDatetimeFeaturesPeriod(t *testing.T) {
	d, err := NewDatetimeFeatures("date", DivisorPeriod)
	if err != nil {
		t.Fatalf("NewDatetimeFeatures() error = %v", err)
	}
	out, err := d.Transform(context.Background(), dateFrame(t, day(2018, 9, 3), day(2018, 9, 9), time.Time{}))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	year, _ := out.Floats(ColYear)
	dow, _ := out.Floats(ColDayOfWeekSin)
	doySin, _ := out.Floats(ColDayOfYearSin)
	doyCos, _ := out.Floats(ColDayOfYearCos)
	week, _ := out.Floats(ColWeek)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"year", year[0], 2018},
		{"monday day_of_week_sin", dow[0], 0},
		{"day_of_year_sin", doySin[0], math.Sin(2 * math.Pi * 246 / 365)},
		{"day_of_year_cos", doyCos[0], math.Cos(2 * math.Pi * 246 / 365)},
		{"iso week", week[0], 36},
		{"sunday day_of_week_sin", dow[1], math.Sin(2 * math.Pi)},
		{"sunday iso week", week[1], 36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !near(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if math.Abs(doySin[0]-(-0.8881)) > 1e-3 || math.Abs(doyCos[0]-(-0.4597)) > 1e-3 {
		t.Errorf("day of year encoding = (%v, %v), want about (-0.8881, -0.4597)", doySin[0], doyCos[0])
	}
	if !math.IsNaN(year[2]) || !math.IsNaN(week[2]) {
		t.Errorf("missing date features = (%v, %v), want NaN", year[2], week[2])
	}
}

func TestDatetimeFeaturesPeriodIgnoresBatch(t *testing.T) {
	d, _ := NewDatetimeFeatures("date", DivisorPeriod)
	alone, err := d.Transform(context.Background(), dateFrame(t, day(2018, 9, 3)))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	batch, err := d.Transform(context.Background(), dateFrame(t, day(2018, 9, 3), day(2018, 12, 31)))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	for _, col := range []string{ColDayOfWeekSin, ColDayOfYearSin, ColDayOfYearCos} {
		a, _ := alone.Floats(col)
		b, _ := batch.Floats(col)
		if a[0] != b[0] {
			t.Errorf("%s: alone %v, in batch %v", col, a[0], b[0])
		}
	}
}

func TestDatetimeFeaturesBatchMax(t *testing.T) {
	d, err := NewDatetimeFeatures("date", DivisorBatchMax)
	if err != nil {
		t.Fatalf("NewDatetimeFeatures() error = %v", err)
	}

	t.Run("divides by batch maxima", func(t *testing.T) {
		// Monday 2018-09-03 (day 246) and Friday 2018-09-07 (weekday 4, day 250).
		out, err := d.Transform(context.Background(), dateFrame(t, day(2018, 9, 3), day(2018, 9, 7)))
		if err != nil {
			t.Fatalf("Transform() error = %v", err)
		}
		doySin, _ := out.Floats(ColDayOfYearSin)
		dow, _ := out.Floats(ColDayOfWeekSin)
		if want := math.Sin(2 * math.Pi * 246 / 250); !near(doySin[0], want) {
			t.Errorf("day_of_year_sin = %v, want %v", doySin[0], want)
		}
		if want := math.Sin(2 * math.Pi * 4 / 4); !near(dow[1], want) {
			t.Errorf("day_of_week_sin = %v, want %v", dow[1], want)
		}
	})

	t.Run("lone monday does not produce NaN", func(t *testing.T) {
		out, err := d.Transform(context.Background(), dateFrame(t, day(2018, 9, 3)))
		if err != nil {
			t.Fatalf("Transform() error = %v", err)
		}
		dow, _ := out.Floats(ColDayOfWeekSin)
		if dow[0] != 0 {
			t.Errorf("day_of_week_sin = %v, want 0", dow[0])
		}
	})
}

func TestNewDatetimeFeaturesErrors(t *testing.T) {
	tests := []struct {
		name   string
		column string
		mode   DivisorMode
	}{
		{"empty column", "", DivisorPeriod},
		{"unknown mode", "date", "weekly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDatetimeFeatures(tt.column, tt.mode)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error = %v, want ConfigurationError", err)
			}
		})
	}
}
