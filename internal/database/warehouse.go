// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package database

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tomtom215/cantine/internal/logging"
)

// LoadCounts reports the rows written by LoadStaging.
type LoadCounts struct {
	Staging int64 `json:"staging"`
	Sites   int64 `json:"sites"`
	Days    int64 `json:"days"`
	Facts   int64 `json:"facts"`
}

// LoadStaging reads csvPath into the staging table and rebuilds the star
// schema from it. site_id is the dense rank of (canteen_id, school_year);
// day_id is the dense rank of date. Dimension attributes come from the
// earliest row of each key. CreateSchema must have run first.
func (db *DB) LoadStaging(ctx context.Context, csvPath string) (*LoadCounts, error) {
	if _, err := os.Stat(csvPath); err != nil {
		return nil, fmt.Errorf("staging file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	logger := logging.Ctx(ctx).With().Str("component", "warehouse").Str("csv", csvPath).Logger()
	start := time.Now()

	steps := []struct {
		table string
		query string
	}{
		{TableFact, "DELETE FROM " + TableFact},
		{TableSite, "DELETE FROM " + TableSite},
		{TableMenu, "DELETE FROM " + TableMenu},
		{TableCalendar, "DELETE FROM " + TableCalendar},
		{TableEvent, "DELETE FROM " + TableEvent},
		{TableStaging, "DELETE FROM " + TableStaging},
		{TableStaging, fmt.Sprintf(
			"INSERT INTO %s BY NAME SELECT * FROM read_csv_auto(%s, header = true)",
			TableStaging, quoteLiteral(csvPath))},
	}
	for _, s := range steps {
		if err := db.exec(ctx, "load", s.table, s.query); err != nil {
			return nil, err
		}
	}

	staged, err := db.count(ctx, TableStaging)
	if err != nil {
		return nil, err
	}
	if staged == 0 {
		return nil, ErrEmptyStaging
	}

	keyed := fmt.Sprintf(`WITH keyed AS (
		SELECT *,
			CAST(DENSE_RANK() OVER (ORDER BY canteen_id, school_year) AS INTEGER) AS site_id,
			CAST(DENSE_RANK() OVER (ORDER BY date) AS INTEGER) AS day_id
		FROM %s
	)`, TableStaging)

	inserts := []struct {
		table string
		query string
	}{
		{TableSite, fmt.Sprintf(`INSERT INTO %s (site_id, %s)
		%s
		SELECT DISTINCT ON (site_id) site_id, %s
		FROM keyed ORDER BY site_id, date`,
			TableSite, strings.Join(siteColumns, ", "), keyed, strings.Join(siteColumns, ", "))},
		{TableMenu, fmt.Sprintf(`INSERT INTO %s (day_id, date, menu)
		%s
		SELECT DISTINCT ON (day_id) day_id, date, menu
		FROM keyed ORDER BY day_id, menu NULLS LAST`,
			TableMenu, keyed)},
		{TableCalendar, fmt.Sprintf(`INSERT INTO %s (day_id, date, %s)
		%s
		SELECT DISTINCT ON (day_id) day_id, date, %s
		FROM keyed ORDER BY day_id`,
			TableCalendar, strings.Join(calendarColumns, ", "), keyed, strings.Join(calendarColumns, ", "))},
		{TableEvent, fmt.Sprintf(`INSERT INTO %s (day_id, date, %s)
		%s
		SELECT DISTINCT ON (day_id) day_id, date, %s
		FROM keyed ORDER BY day_id`,
			TableEvent, strings.Join(eventColumns, ", "), keyed, strings.Join(eventColumns, ", "))},
		{TableFact, fmt.Sprintf(`INSERT INTO %s (fact_id, day_id, site_id, date, forecast, actual)
		%s
		SELECT CAST(ROW_NUMBER() OVER (ORDER BY date, canteen_id, school_year) AS INTEGER),
			day_id, site_id, date, forecast, actual
		FROM keyed`,
			TableFact, keyed)},
	}
	for _, s := range inserts {
		if err := db.exec(ctx, "load", s.table, s.query); err != nil {
			return nil, err
		}
	}

	counts := &LoadCounts{Staging: staged}
	for _, c := range []struct {
		table string
		dst   *int64
	}{
		{TableSite, &counts.Sites},
		{TableCalendar, &counts.Days},
		{TableFact, &counts.Facts},
	} {
		n, err := db.count(ctx, c.table)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	logger.Info().
		Int64("staging", counts.Staging).
		Int64("sites", counts.Sites).
		Int64("days", counts.Days).
		Int64("facts", counts.Facts).
		Dur("duration", time.Since(start)).
		Msg("Warehouse loaded")

	return counts, nil
}
