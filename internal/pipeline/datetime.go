// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/tomtom215/cantine/internal/frame"
)

// Calendar feature columns.
const (
	ColYear         = "year"
	ColDayOfWeekSin = "day_of_week_sin"
	ColDayOfYearSin = "day_of_year_sin"
	ColDayOfYearCos = "day_of_year_cos"
	ColWeek         = "week"
)

// DivisorMode selects the denominator of the cyclical calendar encoding.
type DivisorMode string

const (
	// DivisorPeriod divides by the calendar period: 6 for the Monday-based
	// weekday, 365 or 366 for the day of year. Features do not depend on
	// the other rows of the batch.
	DivisorPeriod DivisorMode = "period"

	// DivisorBatchMax divides by the largest weekday and day of year present
	// in the batch. This reproduces the features of models trained before
	// DivisorPeriod existed; the same date can encode differently depending
	// on its batch.
	DivisorBatchMax DivisorMode = "batch_max"
)

// DatetimeFeatures derives year, cyclical weekday and day-of-year, and ISO
// week from a date column. It learns nothing.
type DatetimeFeatures struct {
	DateColumn string
	Divisor    DivisorMode
}

// NewDatetimeFeatures validates the configuration.
func NewDatetimeFeatures(dateColumn string, mode DivisorMode) (*DatetimeFeatures, error) {
	if dateColumn == "" {
		return nil, configErr("date_features", "date column name is empty")
	}
	switch mode {
	case DivisorPeriod, DivisorBatchMax:
	default:
		return nil, configErr("date_features", "unknown divisor mode %q", mode)
	}
	return &DatetimeFeatures{DateColumn: dateColumn, Divisor: mode}, nil
}

// Fit is a no-op.
func (d *DatetimeFeatures) Fit(context.Context, *frame.Frame) error { return nil }

// Transform adds the calendar columns. Rows with a missing date get NaN.
func (d *DatetimeFeatures) Transform(_ context.Context, df *frame.Frame) (*frame.Frame, error) {
	dates, err := df.Times(d.DateColumn)
	if err != nil {
		return nil, err
	}

	// Batch maxima are only used in DivisorBatchMax mode.
	var maxWeekday, maxYearDay int
	for _, t := range dates {
		if t.IsZero() {
			continue
		}
		maxWeekday = max(maxWeekday, weekday(t))
		maxYearDay = max(maxYearDay, t.YearDay())
	}

	n := df.Len()
	year := make([]float64, n)
	dowSin := make([]float64, n)
	doySin := make([]float64, n)
	doyCos := make([]float64, n)
	week := make([]float64, n)

	for i, t := range dates {
		if t.IsZero() {
			year[i], dowSin[i], doySin[i], doyCos[i], week[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		wdDiv, ydDiv := 6, daysInYear(t.Year())
		if d.Divisor == DivisorBatchMax {
			wdDiv, ydDiv = maxWeekday, maxYearDay
		}
		_, isoWeek := t.ISOWeek()

		year[i] = float64(t.Year())
		dowSin[i] = math.Sin(2 * math.Pi * ratio(weekday(t), wdDiv))
		doyAngle := 2 * math.Pi * ratio(t.YearDay(), ydDiv)
		doySin[i] = math.Sin(doyAngle)
		doyCos[i] = math.Cos(doyAngle)
		week[i] = float64(isoWeek)
	}

	out := df.Clone()
	for _, c := range []struct {
		name string
		vals []float64
	}{
		{ColYear, year},
		{ColDayOfWeekSin, dowSin},
		{ColDayOfYearSin, doySin},
		{ColDayOfYearCos, doyCos},
		{ColWeek, week},
	} {
		if err := out.SetFloat(c.name, c.vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// weekday returns the Monday-based weekday, 0 through 6.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ratio returns v/div, or 0 when div is 0. A zero batch maximum only occurs
// when every value is 0, and 0 is the limit of the encoding there.
func ratio(v, div int) float64 {
	if div == 0 {
		return 0
	}
	return float64(v) / float64(div)
}

func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}
