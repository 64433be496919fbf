// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Package attendancetest generates deterministic attendance histories for tests.
package attendancetest

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/tomtom215/cantine/internal/attendance"
)

type site struct {
	canteen      string
	neighborhood string
	enrollment   float64
	lon, lat     float64
	price        float64
}

var sites = []site{
	{"MAISDON PAJOT", "Zola", 201, 1.5848, 47.2183, 3424},
	{"AMPERE", "Centre Ville", 148, 1.5536, 47.2150, 4010},
	{"BOTTIERE", "Doulon", 312, 1.5923, 47.2301, 2870},
}

// Options tunes the generated history.
type Options struct {
	// FirstYear is the calendar year the first school year starts in.
	FirstYear int

	// SchoolYears is the number of consecutive school years.
	SchoolYears int

	// Seed makes the noise reproducible.
	Seed uint64
}

// DefaultOptions covers 2016-2017 through 2018-2019.
func DefaultOptions() Options {
	return Options{FirstYear: 2016, SchoolYears: 3, Seed: 7}
}

// History returns one record per canteen per school day (Monday, Tuesday,
// Thursday, Friday from September to June). About 2% of forecasts are
// missing and 1% of actuals are 0. About 1% of days are strikes, shared by
// every canteen.
func History(opts Options) []attendance.Record {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	var out []attendance.Record

	for y := 0; y < opts.SchoolYears; y++ {
		start := time.Date(opts.FirstYear+y, time.September, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(opts.FirstYear+y+1, time.June, 30, 0, 0, 0, 0, time.UTC)
		label := fmt.Sprintf("%d-%d", opts.FirstYear+y, opts.FirstYear+y+1)

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			switch d.Weekday() {
			case time.Wednesday, time.Saturday, time.Sunday:
				continue
			}
			// Strikes are city-wide.
			strike := rng.Float64() < 0.01
			for _, s := range sites {
				out = append(out, record(rng, s, d, label, start, strike))
			}
		}
	}
	return out
}

func record(rng *rand.Rand, s site, d time.Time, schoolYear string, yearStart time.Time, strike bool) attendance.Record {
	forecast := math.Round(s.enrollment*0.85 + rng.NormFloat64()*6)
	// Fridays run lower, and attendance drifts up over the year.
	effect := 0.0
	if d.Weekday() == time.Friday {
		effect = -0.06 * s.enrollment
	}
	progress := d.Sub(yearStart).Hours() / 24 / 300
	actual := math.Round(forecast*0.93 + effect + progress*8 + rng.NormFloat64()*5)

	r := attendance.Record{
		Date:                   d,
		Forecast:               forecast,
		Actual:                 math.Max(actual, 1),
		CanteenID:              s.canteen,
		SchoolYear:             schoolYear,
		Enrollment:             s.enrollment,
		Neighborhood:           s.neighborhood,
		NeighborhoodPriceM2:    s.price,
		ApartmentPriceM2:       3553,
		HousePriceM2:           4490,
		Longitude:              s.lon,
		Latitude:               s.lat,
		DaysSinceHolidays:      float64(d.YearDay() % 50),
		DaysSincePublicHoliday: float64(d.YearDay() % 40),
		DaysSinceJewishHoliday: float64(d.YearDay() % 60),
		DaysUntilRamadan:       float64(365 - d.YearDay()),
		DaysSinceRamadan:       float64(d.YearDay() % 90),
	}

	if strike {
		r.StrikeDay = true
		r.Actual = math.Round(r.Actual * 0.3)
	}
	switch p := rng.Float64(); {
	case p < 0.02:
		r.Forecast = math.NaN()
	case p < 0.03:
		r.Actual = 0
	}
	return r
}

// Scenario returns the reference inference record: MAISDON PAJOT on
// 2018-09-03, no strike.
func Scenario() attendance.Record {
	return attendance.Record{
		Date:                   time.Date(2018, time.September, 3, 0, 0, 0, 0, time.UTC),
		Forecast:               189,
		Actual:                 math.NaN(),
		CanteenID:              "MAISDON PAJOT",
		SchoolYear:             "2018-2019",
		Enrollment:             201,
		Neighborhood:           "Zola",
		NeighborhoodPriceM2:    3424,
		ApartmentPriceM2:       3553,
		HousePriceM2:           4490,
		Longitude:              1.5848,
		Latitude:               47.2183,
		DaysSinceHolidays:      1,
		DaysSincePublicHoliday: 19,
		DaysSinceJewishHoliday: 43,
		DaysUntilRamadan:       245,
		DaysSinceRamadan:       81,
	}
}
