// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

/*
Package database provides the DuckDB attendance warehouse.

The warehouse is a star schema rebuilt from one staging CSV:

	staging_attendance  raw rows from read_csv_auto
	fact_attendance     fact_id, day_id, site_id, date, forecast, actual
	dim_site            site_id: canteen and school year attributes
	dim_calendar        day_id: distances to holidays and religious events
	dim_event           day_id: event flags, including strike_day
	dim_menu            day_id: the day's menu, kept for reporting

LoadDataset joins the fact table with dim_site, dim_calendar and dim_event;
the menu is not a model input.

site_id is the dense rank of (canteen_id, school_year) and day_id the dense
rank of date, so ids are stable for a given file.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	if err := db.CreateSchema(ctx); err != nil {
	    return err
	}
	counts, err := db.LoadStaging(ctx, "data/attendance.csv")

	records, err := db.LoadDataset(ctx)

Every statement is timed into the duckdb_query_duration_seconds
histogram.
*/
package database
