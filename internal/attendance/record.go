// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Package attendance defines the daily canteen attendance record and the
// column names shared by the warehouse, the training job and the server.
package attendance

import (
	"math"
	"time"

	"github.com/tomtom215/cantine/internal/frame"
)

// Column names.
const (
	ColDate                   = "date"
	ColForecast               = "forecast"
	ColActual                 = "actual"
	ColCanteenID              = "canteen_id"
	ColSchoolYear             = "school_year"
	ColEnrollment             = "enrollment"
	ColNeighborhood           = "neighborhood"
	ColNeighborhoodPriceM2    = "neighborhood_price_m2"
	ColApartmentPriceM2       = "apartment_price_m2"
	ColHousePriceM2           = "house_price_m2"
	ColLongitude              = "longitude"
	ColLatitude               = "latitude"
	ColDaysSinceHolidays      = "days_since_holidays"
	ColDaysSincePublicHoliday = "days_since_public_holiday"
	ColDaysSinceJewishHoliday = "days_since_jewish_holiday"
	ColDaysUntilRamadan       = "days_until_ramadan"
	ColDaysSinceRamadan       = "days_since_ramadan"
	ColStrikeDay              = "strike_day"
)

// CategoricalColumns are the string-valued model inputs.
var CategoricalColumns = []string{ColCanteenID, ColSchoolYear, ColNeighborhood}

// ContextColumns are the numeric site and calendar inputs that may be missing
// and are filled by the median imputer.
var ContextColumns = []string{
	ColNeighborhoodPriceM2,
	ColApartmentPriceM2,
	ColHousePriceM2,
	ColLongitude,
	ColLatitude,
	ColDaysSinceHolidays,
	ColDaysSincePublicHoliday,
	ColDaysSinceJewishHoliday,
	ColDaysUntilRamadan,
	ColDaysSinceRamadan,
}

// Record is one canteen on one day. Numeric fields use NaN for missing
// values; Actual == 0 means no service was recorded.
type Record struct {
	Date                   time.Time
	Forecast               float64
	Actual                 float64
	CanteenID              string
	SchoolYear             string
	Enrollment             float64
	Neighborhood           string
	NeighborhoodPriceM2    float64
	ApartmentPriceM2       float64
	HousePriceM2           float64
	Longitude              float64
	Latitude               float64
	DaysSinceHolidays      float64
	DaysSincePublicHoliday float64
	DaysSinceJewishHoliday float64
	DaysUntilRamadan       float64
	DaysSinceRamadan       float64
	StrikeDay              bool
}

// NaN is a shorthand for a missing numeric value.
func NaN() float64 { return math.NaN() }

// ToFrame converts records to a frame. The actual column is included only
// when withActual is true, so inference frames never carry a target.
func ToFrame(records []Record, withActual bool) *frame.Frame {
	n := len(records)
	f := frame.New(n)

	dates := make([]time.Time, n)
	canteens := make([]string, n)
	years := make([]string, n)
	hoods := make([]string, n)
	strike := make([]float64, n)
	nums := make(map[string][]float64, len(ContextColumns)+3)
	for _, name := range append([]string{ColForecast, ColActual, ColEnrollment}, ContextColumns...) {
		nums[name] = make([]float64, n)
	}

	for i := range records {
		r := &records[i]
		dates[i] = r.Date
		canteens[i] = r.CanteenID
		years[i] = r.SchoolYear
		hoods[i] = r.Neighborhood
		if r.StrikeDay {
			strike[i] = 1
		}
		nums[ColForecast][i] = r.Forecast
		nums[ColActual][i] = r.Actual
		nums[ColEnrollment][i] = r.Enrollment
		nums[ColNeighborhoodPriceM2][i] = r.NeighborhoodPriceM2
		nums[ColApartmentPriceM2][i] = r.ApartmentPriceM2
		nums[ColHousePriceM2][i] = r.HousePriceM2
		nums[ColLongitude][i] = r.Longitude
		nums[ColLatitude][i] = r.Latitude
		nums[ColDaysSinceHolidays][i] = r.DaysSinceHolidays
		nums[ColDaysSincePublicHoliday][i] = r.DaysSincePublicHoliday
		nums[ColDaysSinceJewishHoliday][i] = r.DaysSinceJewishHoliday
		nums[ColDaysUntilRamadan][i] = r.DaysUntilRamadan
		nums[ColDaysSinceRamadan][i] = r.DaysSinceRamadan
	}

	// Lengths always match n, so the Set* errors cannot occur.
	_ = f.SetTime(ColDate, dates)
	_ = f.SetFloat(ColForecast, nums[ColForecast])
	if withActual {
		_ = f.SetFloat(ColActual, nums[ColActual])
	}
	_ = f.SetString(ColCanteenID, canteens)
	_ = f.SetString(ColSchoolYear, years)
	_ = f.SetFloat(ColEnrollment, nums[ColEnrollment])
	_ = f.SetString(ColNeighborhood, hoods)
	for _, name := range ContextColumns {
		_ = f.SetFloat(name, nums[name])
	}
	_ = f.SetFloat(ColStrikeDay, strike)
	return f
}
