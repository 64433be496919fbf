// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package attendance

import (
	"testing"
	"time"
)

func TestToFrame(t *testing.T) {
	records := []Record{
		{
			Date:       time.Date(2018, 9, 3, 0, 0, 0, 0, time.UTC),
			Forecast:   189,
			Actual:     176,
			CanteenID:  "MAISDON PAJOT",
			SchoolYear: "2018-2019",
			Enrollment: 201,
			StrikeDay:  true,
		},
	}

	tests := []struct {
		name       string
		withActual bool
	}{
		{name: "training", withActual: true},
		{name: "inference", withActual: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ToFrame(records, tt.withActual)
			if f.Len() != 1 {
				t.Fatalf("Len() = %d, want 1", f.Len())
			}
			if f.Has(ColActual) != tt.withActual {
				t.Errorf("Has(actual) = %v, want %v", f.Has(ColActual), tt.withActual)
			}
			strike, err := f.Floats(ColStrikeDay)
			if err != nil {
				t.Fatalf("Floats(strike_day) error = %v", err)
			}
			if strike[0] != 1 {
				t.Errorf("strike_day = %v, want 1", strike[0])
			}
			ids, _ := f.Strings(ColCanteenID)
			if ids[0] != "MAISDON PAJOT" {
				t.Errorf("canteen_id = %q", ids[0])
			}
		})
	}
}
