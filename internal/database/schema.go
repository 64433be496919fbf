// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/cantine/internal/logging"
)

// Warehouse tables.
const (
	TableStaging  = "staging_attendance"
	TableFact     = "fact_attendance"
	TableSite     = "dim_site"
	TableMenu     = "dim_menu"
	TableCalendar = "dim_calendar"
	TableEvent    = "dim_event"
)

type column struct {
	name string
	typ  string
}

// stagingColumns is the accepted CSV layout. Columns absent from a file are
// loaded as NULL.
var stagingColumns = []column{
	{"date", "DATE"},
	{"site_type", "VARCHAR"},
	{"canteen_id", "VARCHAR"},
	{"school_year", "VARCHAR"},
	{"forecast", "DOUBLE"},
	{"actual", "DOUBLE"},
	{"enrollment", "DOUBLE"},
	{"neighborhood", "VARCHAR"},
	{"neighborhood_price_m2", "DOUBLE"},
	{"apartment_price_m2", "DOUBLE"},
	{"house_price_m2", "DOUBLE"},
	{"longitude", "DOUBLE"},
	{"latitude", "DOUBLE"},
	{"days_until_holidays", "INTEGER"},
	{"days_since_holidays", "INTEGER"},
	{"days_until_public_holiday", "INTEGER"},
	{"days_since_public_holiday", "INTEGER"},
	{"days_until_christian_holiday", "INTEGER"},
	{"days_since_christian_holiday", "INTEGER"},
	{"days_until_jewish_holiday", "INTEGER"},
	{"days_since_jewish_holiday", "INTEGER"},
	{"days_until_ramadan", "INTEGER"},
	{"days_since_ramadan", "INTEGER"},
	{"days_until_muslim_holiday", "INTEGER"},
	{"days_since_muslim_holiday", "INTEGER"},
	{"christian_holiday", "INTEGER"},
	{"jewish_holiday", "INTEGER"},
	{"ramadan", "INTEGER"},
	{"muslim_holiday", "INTEGER"},
	{"strike_day", "INTEGER"},
	{"menu", "VARCHAR"},
}

var siteColumns = []string{
	"site_type", "canteen_id", "school_year", "enrollment", "neighborhood",
	"neighborhood_price_m2", "apartment_price_m2", "house_price_m2",
	"longitude", "latitude",
}

var calendarColumns = []string{
	"days_until_holidays", "days_since_holidays",
	"days_until_public_holiday", "days_since_public_holiday",
	"days_until_christian_holiday", "days_since_christian_holiday",
	"days_until_jewish_holiday", "days_since_jewish_holiday",
	"days_until_ramadan", "days_since_ramadan",
	"days_until_muslim_holiday", "days_since_muslim_holiday",
}

var eventColumns = []string{
	"christian_holiday", "jewish_holiday", "ramadan", "muslim_holiday", "strike_day",
}

// warehouseTables are dropped in this order (fact first).
var warehouseTables = []string{TableFact, TableSite, TableMenu, TableCalendar, TableEvent, TableStaging}

// columnDefs renders "name TYPE" pairs for names, looking types up in the
// staging layout.
func columnDefs(names []string) string {
	types := make(map[string]string, len(stagingColumns))
	for _, c := range stagingColumns {
		types[c.name] = c.typ
	}
	defs := make([]string, len(names))
	for i, n := range names {
		defs[i] = n + " " + types[n]
	}
	return strings.Join(defs, ",\n\t")
}

func stagingDDL() string {
	defs := make([]string, len(stagingColumns))
	for i, c := range stagingColumns {
		defs[i] = c.name + " " + c.typ
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", TableStaging, strings.Join(defs, ",\n\t"))
}

func schemaDDL() []string {
	return []string{
		stagingDDL(),
		fmt.Sprintf(`CREATE TABLE %s (
	site_id INTEGER PRIMARY KEY,
	%s
)`, TableSite, columnDefs(siteColumns)),
		fmt.Sprintf(`CREATE TABLE %s (
	day_id INTEGER PRIMARY KEY,
	date DATE NOT NULL,
	menu VARCHAR
)`, TableMenu),
		fmt.Sprintf(`CREATE TABLE %s (
	day_id INTEGER PRIMARY KEY,
	date DATE NOT NULL,
	%s
)`, TableCalendar, columnDefs(calendarColumns)),
		fmt.Sprintf(`CREATE TABLE %s (
	day_id INTEGER PRIMARY KEY,
	date DATE NOT NULL,
	%s
)`, TableEvent, columnDefs(eventColumns)),
		fmt.Sprintf(`CREATE TABLE %s (
	fact_id INTEGER PRIMARY KEY,
	day_id INTEGER NOT NULL REFERENCES %s (day_id),
	site_id INTEGER NOT NULL REFERENCES %s (site_id),
	date DATE NOT NULL,
	forecast DOUBLE,
	actual DOUBLE
)`, TableFact, TableCalendar, TableSite),
		fmt.Sprintf("CREATE INDEX idx_fact_date ON %s (date)", TableFact),
	}
}

// CreateSchema drops and recreates every warehouse table.
func (db *DB) CreateSchema(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	for _, table := range warehouseTables {
		if err := db.exec(ctx, "drop", table, "DROP TABLE IF EXISTS "+table); err != nil {
			return err
		}
	}
	for _, ddl := range schemaDDL() {
		if err := db.exec(ctx, "create", "schema", ddl); err != nil {
			return err
		}
	}

	logging.Info().Int("tables", len(warehouseTables)).Msg("Warehouse schema created")
	return nil
}
