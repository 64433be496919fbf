// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/cantine/internal/frame"
	"github.com/tomtom215/cantine/internal/logging"
)

// InterpolationImputer fills gaps in one numeric column by linear
// interpolation in time between the nearest known values of the same group.
// Rows that cannot be interpolated (no known value before or after them in
// their group) are dropped.
type InterpolationImputer struct {
	Column      string
	GroupColumn string
	DateColumn  string
}

// NewInterpolationImputer validates the configuration.
func NewInterpolationImputer(column, groupColumn, dateColumn string) (*InterpolationImputer, error) {
	if column == "" || groupColumn == "" || dateColumn == "" {
		return nil, configErr("interpolate_imputation", "column, group and date names are required")
	}
	return &InterpolationImputer{Column: column, GroupColumn: groupColumn, DateColumn: dateColumn}, nil
}

// Fit is a no-op: interpolation only uses the rows being transformed.
func (p *InterpolationImputer) Fit(context.Context, *frame.Frame) error { return nil }

// ImputedColumns reports the column this stage fills.
func (p *InterpolationImputer) ImputedColumns() []string { return []string{p.Column} }

// Transform interpolates and drops the rows left missing.
func (p *InterpolationImputer) Transform(_ context.Context, df *frame.Frame) (*frame.Frame, error) {
	vals, err := df.Floats(p.Column)
	if err != nil {
		return nil, err
	}
	groups, err := df.Strings(p.GroupColumn)
	if err != nil {
		return nil, err
	}
	dates, err := df.Times(p.DateColumn)
	if err != nil {
		return nil, err
	}

	filled := append([]float64(nil), vals...)
	byGroup := make(map[string][]int)
	var order []string
	for i, g := range groups {
		if _, ok := byGroup[g]; !ok {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], i)
	}

	for _, g := range order {
		idx := byGroup[g]
		sort.SliceStable(idx, func(a, b int) bool { return dates[idx[a]].Before(dates[idx[b]]) })

		prev := -1
		for pos, i := range idx {
			if !math.IsNaN(vals[i]) && !dates[i].IsZero() {
				prev = pos
				continue
			}
			if !math.IsNaN(vals[i]) || prev < 0 || dates[i].IsZero() {
				continue
			}
			next := -1
			for q := pos + 1; q < len(idx); q++ {
				if j := idx[q]; !math.IsNaN(vals[j]) && !dates[j].IsZero() {
					next = q
					break
				}
			}
			if next < 0 {
				break
			}
			a, b := idx[prev], idx[next]
			span := dates[b].Sub(dates[a])
			if span <= 0 {
				filled[i] = vals[a]
				continue
			}
			frac := float64(dates[i].Sub(dates[a])) / float64(span)
			filled[i] = vals[a] + (vals[b]-vals[a])*frac
		}
	}

	keep := make([]bool, len(filled))
	dropped := 0
	for i, v := range filled {
		keep[i] = !math.IsNaN(v)
		if !keep[i] {
			dropped++
		}
	}
	out := df.Clone()
	if err := out.SetFloat(p.Column, filled); err != nil {
		return nil, err
	}
	if dropped == 0 {
		return out, nil
	}
	logging.Debug().
		Str("stage", "interpolate_imputation").
		Str("column", p.Column).
		Int("dropped", dropped).
		Msg("rows without interpolation neighbours dropped")
	return out.Filter(keep)
}

// MedianImputer fills missing values in the configured columns with the
// median learned at fit time.
type MedianImputer struct {
	Columns []string
	Medians map[string]float64
	Fitted  bool
}

// NewMedianImputer returns a ConfigurationError if columns is empty, holds an
// empty name or repeats a name.
func NewMedianImputer(columns []string) (*MedianImputer, error) {
	if len(columns) == 0 {
		return nil, configErr("median_imputation", "column list is empty")
	}
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, configErr("median_imputation", "column %d has an empty name", i)
		}
		if seen[c] {
			return nil, configErr("median_imputation", "column %q listed twice", c)
		}
		seen[c] = true
	}
	return &MedianImputer{Columns: append([]string(nil), columns...)}, nil
}

// ImputedColumns reports the columns this stage fills.
func (m *MedianImputer) ImputedColumns() []string { return m.Columns }

// Fit stores the median of every configured column. A column with no values
// at all gets a median of 0.
func (m *MedianImputer) Fit(_ context.Context, df *frame.Frame) error {
	medians := make(map[string]float64, len(m.Columns))
	for _, c := range m.Columns {
		vals, err := df.Floats(c)
		if err != nil {
			return configErr("median_imputation", "column %q: %v", c, err)
		}
		med := nanMedian(vals)
		if math.IsNaN(med) {
			logging.Warn().Str("column", c).Msg("no values to learn a median from, using 0")
			med = 0
		}
		medians[c] = med
	}
	m.Medians = medians
	m.Fitted = true
	return nil
}

// Transform fills NaN with the fitted medians.
func (m *MedianImputer) Transform(_ context.Context, df *frame.Frame) (*frame.Frame, error) {
	if !m.Fitted {
		return nil, ErrNotFitted
	}
	out := df.Clone()
	for _, c := range m.Columns {
		vals, err := out.Floats(c)
		if err != nil {
			return nil, err
		}
		med := m.Medians[c]
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = med
			}
		}
		if err := out.SetFloat(c, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}
