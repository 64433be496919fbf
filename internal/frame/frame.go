// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Package frame wraps a gota DataFrame with the typed column accessors the
// feature pipeline needs.
//
// A Frame holds ordered, named columns of three kinds: float64 (NaN marks a
// missing value), string ("" marks a missing value) and time.Time (the zero
// time marks a missing value). Times are stored as an Int series of Unix
// seconds in UTC. Every row operation (Filter, Take) applies to all columns,
// so a target column stays aligned with its features.
//
// Accessors return copies. Store a modified column back with its Set method.
package frame

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind identifies the storage type of a column.
type Kind int

const (
	Float Kind = iota
	String
	Time
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case String:
		return "string"
	case Time:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func kindOf(t series.Type) Kind {
	switch t {
	case series.String:
		return String
	case series.Int:
		return Time
	default:
		return Float
	}
}

var (
	// ErrNoColumn is returned when a column does not exist.
	ErrNoColumn = errors.New("frame: no such column")

	// ErrKind is returned when a column exists with a different kind.
	ErrKind = errors.New("frame: column kind mismatch")

	// ErrLength is returned when a column length differs from the frame length.
	ErrLength = errors.New("frame: column length mismatch")
)

// zeroUnix is the Unix time of time.Time{}, the missing time.
var zeroUnix = time.Time{}.Unix()

// Frame is a column-oriented table. The zero value is an empty frame with no rows.
type Frame struct {
	// df is the zero DataFrame while the frame has no columns; gota has no
	// representation for rows without columns, so the row count lives in n.
	df dataframe.DataFrame
	n  int
}

// New returns an empty frame with n rows and no columns.
func New(n int) *Frame {
	return &Frame{n: n}
}

func wrap(df dataframe.DataFrame, n int) (*Frame, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("frame: %w", df.Err)
	}
	return &Frame{df: df, n: n}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.n }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	if f.df.Ncol() == 0 {
		return []string{}
	}
	return f.df.Names()
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	return slices.Contains(f.Columns(), name)
}

// KindOf returns the kind of the named column.
func (f *Frame) KindOf(name string) (Kind, bool) {
	if !f.Has(name) {
		return 0, false
	}
	return kindOf(f.df.Col(name).Type()), true
}

// FloatColumns returns the names of all float columns in order.
func (f *Frame) FloatColumns() []string {
	if f.df.Ncol() == 0 {
		return nil
	}
	var names []string
	for i, t := range f.df.Types() {
		if kindOf(t) == Float {
			names = append(names, f.df.Names()[i])
		}
	}
	return names
}

func (f *Frame) lookup(name string, kind Kind) (series.Series, error) {
	if !f.Has(name) {
		return series.Series{}, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	s := f.df.Col(name)
	if got := kindOf(s.Type()); got != kind {
		return series.Series{}, fmt.Errorf("%w: %q is %s, want %s", ErrKind, name, got, kind)
	}
	return s, nil
}

// Floats returns a copy of a float column.
func (f *Frame) Floats(name string) ([]float64, error) {
	s, err := f.lookup(name, Float)
	if err != nil {
		return nil, err
	}
	return s.Float(), nil
}

// Strings returns a copy of a string column.
func (f *Frame) Strings(name string) ([]string, error) {
	s, err := f.lookup(name, String)
	if err != nil {
		return nil, err
	}
	return s.Records(), nil
}

// Times returns a copy of a time column, in UTC.
func (f *Frame) Times(name string) ([]time.Time, error) {
	s, err := f.lookup(name, Time)
	if err != nil {
		return nil, err
	}
	secs, err := s.Int()
	if err != nil {
		return nil, fmt.Errorf("frame: column %q: %w", name, err)
	}
	out := make([]time.Time, len(secs))
	for i, sec := range secs {
		if int64(sec) != zeroUnix {
			out[i] = time.Unix(int64(sec), 0).UTC()
		}
	}
	return out, nil
}

// set replaces the named column in place, or appends it.
func (f *Frame) set(s series.Series, length int) error {
	if length != f.n {
		return fmt.Errorf("%w: %q has %d rows, frame has %d", ErrLength, s.Name, length, f.n)
	}
	var df dataframe.DataFrame
	if f.df.Ncol() == 0 {
		df = dataframe.New(s)
	} else {
		df = f.df.Mutate(s)
	}
	if df.Err != nil {
		return fmt.Errorf("frame: set %q: %w", s.Name, df.Err)
	}
	f.df = df
	return nil
}

// SetFloat stores vals as the named float column, replacing any column of
// that name (of any kind) at its current position.
func (f *Frame) SetFloat(name string, vals []float64) error {
	return f.set(series.New(vals, series.Float, name), len(vals))
}

// SetString stores vals as the named string column.
func (f *Frame) SetString(name string, vals []string) error {
	return f.set(series.New(vals, series.String, name), len(vals))
}

// SetTime stores vals as the named time column.
func (f *Frame) SetTime(name string, vals []time.Time) error {
	secs := make([]int, len(vals))
	for i, t := range vals {
		secs[i] = int(t.Unix())
	}
	return f.set(series.New(secs, series.Int, name), len(vals))
}

// Drop removes the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) {
	var drop []string
	for _, name := range names {
		if f.Has(name) && !slices.Contains(drop, name) {
			drop = append(drop, name)
		}
	}
	switch {
	case len(drop) == 0:
	case len(drop) == f.df.Ncol():
		f.df = dataframe.DataFrame{}
	default:
		f.df = f.df.Drop(drop)
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	if f.df.Ncol() == 0 {
		return New(f.n)
	}
	return &Frame{df: f.df.Copy(), n: f.n}
}

// Filter returns a new frame holding the rows where keep is true.
func (f *Frame) Filter(keep []bool) (*Frame, error) {
	if len(keep) != f.n {
		return nil, fmt.Errorf("%w: mask has %d rows, frame has %d", ErrLength, len(keep), f.n)
	}
	idx := make([]int, 0, f.n)
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return f.Take(idx), nil
}

// Take returns a new frame holding the rows at idx, in that order. It panics
// if an index is out of range.
func (f *Frame) Take(idx []int) *Frame {
	if f.df.Ncol() == 0 {
		return New(len(idx))
	}
	if len(idx) == 0 {
		return f.empty()
	}
	out, err := wrap(f.df.Subset(idx), len(idx))
	if err != nil {
		panic(err)
	}
	return out
}

// empty returns a frame with f's columns and no rows.
func (f *Frame) empty() *Frame {
	cols := make([]series.Series, f.df.Ncol())
	for i, name := range f.df.Names() {
		s := f.df.Col(name)
		cols[i] = series.New([]string{}, s.Type(), name)
	}
	return &Frame{df: dataframe.New(cols...)}
}

// Missing reports, per row, whether the named column holds a missing value.
func (f *Frame) Missing(name string) ([]bool, error) {
	kind, ok := f.KindOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	out := make([]bool, f.n)
	switch kind {
	case Float:
		vals, _ := f.Floats(name)
		for i, v := range vals {
			out[i] = math.IsNaN(v)
		}
	case String:
		vals, _ := f.Strings(name)
		for i, v := range vals {
			out[i] = v == ""
		}
	case Time:
		vals, _ := f.Times(name)
		for i, v := range vals {
			out[i] = v.IsZero()
		}
	}
	return out, nil
}

// Concat appends the rows of other to a copy of f. Both frames must have the
// same columns with the same kinds; column order follows f.
func Concat(f, other *Frame) (*Frame, error) {
	cols := f.Columns()
	if len(other.Columns()) != len(cols) {
		return nil, fmt.Errorf("%w: frames have %d and %d columns", ErrNoColumn, len(cols), len(other.Columns()))
	}
	for _, name := range cols {
		kind, _ := f.KindOf(name)
		if _, err := other.lookup(name, kind); err != nil {
			return nil, err
		}
	}
	if len(cols) == 0 {
		return New(f.n + other.n), nil
	}
	return wrap(f.df.RBind(other.df), f.n+other.n)
}
