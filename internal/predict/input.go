// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package predict

import (
	"math"
	"time"

	"github.com/tomtom215/cantine/internal/attendance"
	"github.com/tomtom215/cantine/internal/validation"
)

// MaxBatch is the largest number of inputs accepted in one call.
const MaxBatch = 10000

// Input is one row to predict. Every field is optional at decode time so a
// missing value can be told apart from a zero; rows missing a value the
// pipeline cannot fill are dropped before prediction.
type Input struct {
	Date                   *string  `json:"date" validate:"omitempty,isodate"`
	Forecast               *float64 `json:"forecast" validate:"omitempty,gte=0"`
	CanteenID              *string  `json:"canteen_id" validate:"omitempty,max=200"`
	SchoolYear             *string  `json:"school_year" validate:"omitempty,school_year"`
	Enrollment             *float64 `json:"enrollment" validate:"omitempty,gt=0,whole"`
	Neighborhood           *string  `json:"neighborhood" validate:"omitempty,max=200"`
	NeighborhoodPriceM2    *float64 `json:"neighborhood_price_m2" validate:"omitempty,gte=0"`
	ApartmentPriceM2       *float64 `json:"apartment_price_m2" validate:"omitempty,gte=0"`
	HousePriceM2           *float64 `json:"house_price_m2" validate:"omitempty,gte=0"`
	Longitude              *float64 `json:"longitude" validate:"omitempty,longitude"`
	Latitude               *float64 `json:"latitude" validate:"omitempty,latitude"`
	DaysSinceHolidays      *float64 `json:"days_since_holidays" validate:"omitempty,gte=0"`
	DaysSincePublicHoliday *float64 `json:"days_since_public_holiday" validate:"omitempty,gte=0"`
	DaysSinceJewishHoliday *float64 `json:"days_since_jewish_holiday" validate:"omitempty,gte=0"`
	DaysUntilRamadan       *float64 `json:"days_until_ramadan" validate:"omitempty,gte=0"`
	DaysSinceRamadan       *float64 `json:"days_since_ramadan" validate:"omitempty,gte=0"`
	StrikeDay              *bool    `json:"strike_day,omitempty"`
}

// Batch is the request body of the predict endpoint.
type Batch struct {
	Inputs []Input `json:"inputs" validate:"required,min=1,max=10000,dive"`
}

// Record converts a validated input. Missing numbers become NaN, missing
// strings empty and a missing date the zero time.
func (in *Input) Record() attendance.Record {
	r := attendance.Record{
		Forecast:               orNaN(in.Forecast),
		Actual:                 math.NaN(),
		CanteenID:              orEmpty(in.CanteenID),
		SchoolYear:             orEmpty(in.SchoolYear),
		Enrollment:             orNaN(in.Enrollment),
		Neighborhood:           orEmpty(in.Neighborhood),
		NeighborhoodPriceM2:    orNaN(in.NeighborhoodPriceM2),
		ApartmentPriceM2:       orNaN(in.ApartmentPriceM2),
		HousePriceM2:           orNaN(in.HousePriceM2),
		Longitude:              orNaN(in.Longitude),
		Latitude:               orNaN(in.Latitude),
		DaysSinceHolidays:      orNaN(in.DaysSinceHolidays),
		DaysSincePublicHoliday: orNaN(in.DaysSincePublicHoliday),
		DaysSinceJewishHoliday: orNaN(in.DaysSinceJewishHoliday),
		DaysUntilRamadan:       orNaN(in.DaysUntilRamadan),
		DaysSinceRamadan:       orNaN(in.DaysSinceRamadan),
		StrikeDay:              in.StrikeDay != nil && *in.StrikeDay,
	}
	if in.Date != nil {
		if d, err := validation.ParseISODate(*in.Date); err == nil {
			r.Date = d
		}
	}
	return r
}

// InputFromRecord is the inverse of Record, for clients and tests holding
// warehouse rows.
func InputFromRecord(r attendance.Record) Input {
	in := Input{
		CanteenID:              strPtr(r.CanteenID),
		SchoolYear:             strPtr(r.SchoolYear),
		Neighborhood:           strPtr(r.Neighborhood),
		Forecast:               numPtr(r.Forecast),
		Enrollment:             numPtr(r.Enrollment),
		NeighborhoodPriceM2:    numPtr(r.NeighborhoodPriceM2),
		ApartmentPriceM2:       numPtr(r.ApartmentPriceM2),
		HousePriceM2:           numPtr(r.HousePriceM2),
		Longitude:              numPtr(r.Longitude),
		Latitude:               numPtr(r.Latitude),
		DaysSinceHolidays:      numPtr(r.DaysSinceHolidays),
		DaysSincePublicHoliday: numPtr(r.DaysSincePublicHoliday),
		DaysSinceJewishHoliday: numPtr(r.DaysSinceJewishHoliday),
		DaysUntilRamadan:       numPtr(r.DaysUntilRamadan),
		DaysSinceRamadan:       numPtr(r.DaysSinceRamadan),
	}
	if !r.Date.IsZero() {
		d := r.Date.Format(time.DateOnly)
		in.Date = &d
	}
	if r.StrikeDay {
		strike := true
		in.StrikeDay = &strike
	}
	return in
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func orEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func numPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
