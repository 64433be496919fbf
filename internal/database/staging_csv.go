// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package database

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/tomtom215/cantine/internal/attendance"
)

// recordCSVHeader is the subset of the staging layout a Record carries.
var recordCSVHeader = []string{
	"date", "canteen_id", "school_year", "forecast", "actual", "enrollment",
	"neighborhood", "neighborhood_price_m2", "apartment_price_m2", "house_price_m2",
	"longitude", "latitude",
	"days_since_holidays", "days_since_public_holiday", "days_since_jewish_holiday",
	"days_until_ramadan", "days_since_ramadan", "strike_day",
}

// WriteStagingCSV writes records in the layout LoadStaging reads. NaN is
// written as an empty field.
func WriteStagingCSV(w io.Writer, records []attendance.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordCSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(recordCSVHeader))
	for i := range records {
		r := &records[i]
		strike := "0"
		if r.StrikeDay {
			strike = "1"
		}
		row = append(row[:0],
			r.Date.Format(time.DateOnly),
			r.CanteenID,
			r.SchoolYear,
			formatFloat(r.Forecast),
			formatFloat(r.Actual),
			formatFloat(r.Enrollment),
			r.Neighborhood,
			formatFloat(r.NeighborhoodPriceM2),
			formatFloat(r.ApartmentPriceM2),
			formatFloat(r.HousePriceM2),
			formatFloat(r.Longitude),
			formatFloat(r.Latitude),
			formatFloat(r.DaysSinceHolidays),
			formatFloat(r.DaysSincePublicHoliday),
			formatFloat(r.DaysSinceJewishHoliday),
			formatFloat(r.DaysUntilRamadan),
			formatFloat(r.DaysSinceRamadan),
			strike,
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
