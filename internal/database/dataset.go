// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/cantine/internal/attendance"
	"github.com/tomtom215/cantine/internal/metrics"
)

var datasetQuery = fmt.Sprintf(`
SELECT
	f.date,
	f.forecast,
	f.actual,
	s.canteen_id,
	s.school_year,
	s.enrollment,
	s.neighborhood,
	s.neighborhood_price_m2,
	s.apartment_price_m2,
	s.house_price_m2,
	s.longitude,
	s.latitude,
	c.days_since_holidays,
	c.days_since_public_holiday,
	c.days_since_jewish_holiday,
	c.days_until_ramadan,
	c.days_since_ramadan,
	e.strike_day
FROM %s f
LEFT JOIN %s s ON f.site_id = s.site_id
LEFT JOIN %s c ON f.day_id = c.day_id
LEFT JOIN %s e ON f.day_id = e.day_id
ORDER BY f.fact_id`, TableFact, TableSite, TableCalendar, TableEvent)

// LoadDataset returns every fact row joined with its dimensions, in fact
// order. NULL numerics become NaN.
func (db *DB) LoadDataset(ctx context.Context) ([]attendance.Record, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	records, err := db.queryDataset(ctx)
	metrics.RecordDBQuery("load_dataset", TableFact, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return records, nil
}

func (db *DB) queryDataset(ctx context.Context) ([]attendance.Record, error) {
	rows, err := db.conn.QueryContext(ctx, datasetQuery)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "dataset rows")

	var records []attendance.Record
	for rows.Next() {
		var (
			r                               attendance.Record
			canteen, year, hood             sql.NullString
			forecast, actual, enrollment    sql.NullFloat64
			hoodPrice, aptPrice, housePrice sql.NullFloat64
			lon, lat                        sql.NullFloat64
			sinceHol, sincePub, sinceJew    sql.NullFloat64
			untilRamadan, sinceRamadan      sql.NullFloat64
			strike                          sql.NullInt64
		)
		if err := rows.Scan(
			&r.Date, &forecast, &actual,
			&canteen, &year, &enrollment, &hood,
			&hoodPrice, &aptPrice, &housePrice, &lon, &lat,
			&sinceHol, &sincePub, &sinceJew, &untilRamadan, &sinceRamadan,
			&strike,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		r.Forecast = nullFloat(forecast)
		r.Actual = nullFloat(actual)
		r.CanteenID = canteen.String
		r.SchoolYear = year.String
		r.Enrollment = nullFloat(enrollment)
		r.Neighborhood = hood.String
		r.NeighborhoodPriceM2 = nullFloat(hoodPrice)
		r.ApartmentPriceM2 = nullFloat(aptPrice)
		r.HousePriceM2 = nullFloat(housePrice)
		r.Longitude = nullFloat(lon)
		r.Latitude = nullFloat(lat)
		r.DaysSinceHolidays = nullFloat(sinceHol)
		r.DaysSincePublicHoliday = nullFloat(sincePub)
		r.DaysSinceJewishHoliday = nullFloat(sinceJew)
		r.DaysUntilRamadan = nullFloat(untilRamadan)
		r.DaysSinceRamadan = nullFloat(sinceRamadan)
		r.StrikeDay = strike.Valid && strike.Int64 != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func nullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
