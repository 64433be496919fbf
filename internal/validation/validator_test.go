// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package validation

import (
	"strings"
	"testing"
	"time"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type row struct {
	Date       string   `json:"date" validate:"required,isodate"`
	SchoolYear string   `json:"school_year" validate:"omitempty,school_year"`
	Enrollment *float64 `json:"enrollment" validate:"required,gt=0,whole"`
	Latitude   float64  `json:"latitude" validate:"latitude"`
}

type batch struct {
	Inputs []row `json:"inputs" validate:"required,min=1,dive"`
}

func ptr(v float64) *float64 { return &v }

func TestValidateStruct(t *testing.T) {
	valid := row{Date: "2018-09-03", SchoolYear: "2018-2019", Enrollment: ptr(201), Latitude: 47.2}

	tests := []struct {
		name       string
		input      batch
		wantFields map[string]string
	}{
		{
			name:  "valid batch",
			input: batch{Inputs: []row{valid}},
		},
		{
			name:  "rfc3339 date accepted",
			input: batch{Inputs: []row{{Date: "2018-09-03T00:00:00Z", Enrollment: ptr(1)}}},
		},
		{
			name:       "empty batch",
			input:      batch{Inputs: []row{}},
			wantFields: map[string]string{"inputs": "inputs must contain at least 1 items"},
		},
		{
			name:  "bad fields in second row",
			input: batch{Inputs: []row{valid, {Date: "03/09/2018", SchoolYear: "2018-2020", Enrollment: ptr(0), Latitude: 95}}},
			wantFields: map[string]string{
				"inputs[1].date":        "date must be an ISO 8601 date (YYYY-MM-DD)",
				"inputs[1].school_year": "school_year must be a school year such as 2018-2019",
				"inputs[1].enrollment":  "enrollment must be greater than 0",
				"inputs[1].latitude":    "latitude must be a valid latitude (-90 to 90)",
			},
		},
		{
			name:       "fractional enrollment",
			input:      batch{Inputs: []row{{Date: "2018-09-03", Enrollment: ptr(201.5)}}},
			wantFields: map[string]string{"inputs[0].enrollment": "enrollment must be a whole number"},
		},
		{
			name:       "missing enrollment",
			input:      batch{Inputs: []row{{Date: "2018-09-03"}}},
			wantFields: map[string]string{"inputs[0].enrollment": "enrollment is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if tt.wantFields == nil {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want errors")
			}
			got := verr.Fields()
			if len(got) != len(tt.wantFields) {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
			for k, want := range tt.wantFields {
				if got[k] != want {
					t.Errorf("Fields()[%q] = %q, want %q", k, got[k], want)
				}
			}
			if !strings.Contains(verr.Error(), ": ") {
				t.Errorf("Error() = %q, want path: message pairs", verr.Error())
			}
		})
	}
}

func TestValidationErrorAccessors(t *testing.T) {
	verr := ValidateStruct(&batch{Inputs: []row{{Date: "2018-09-03", Enrollment: ptr(-3)}}})
	if verr == nil || len(verr.Errors()) != 1 {
		t.Fatalf("ValidateStruct() = %v, want one error", verr)
	}
	e := verr.Errors()[0]
	if e.Field() != "enrollment" || e.Tag() != "gt" || e.Param() != "0" || e.Path() != "inputs[0].enrollment" {
		t.Errorf("error = field %q tag %q param %q path %q", e.Field(), e.Tag(), e.Param(), e.Path())
	}
}

func TestParseISODate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2018-09-03", time.Date(2018, 9, 3, 0, 0, 0, 0, time.UTC), false},
		{"2018-09-03T14:30:00+02:00", time.Date(2018, 9, 3, 0, 0, 0, 0, time.UTC), false},
		{"2018-13-01", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseISODate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseISODate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseISODate() = %v, want %v", got, tt.want)
			}
		})
	}
}
