// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"slices"
	"time"

	"github.com/tomtom215/cantine/internal/attendance"
)

// Regressor kinds.
const (
	RegressorGBM   = "gbm"
	RegressorRidge = "ridge"
)

// Config describes the attendance pipeline.
type Config struct {
	// Divisor selects the cyclical calendar encoding.
	// Default: period.
	Divisor DivisorMode

	// KeepForecastRatio adds the forecast/enrollment group statistics to
	// the features. Default: false (only the actual ratio pair is used).
	KeepForecastRatio bool

	// MedianColumns are filled with their training median.
	// Default: the site and calendar context columns plus the group statistics.
	MedianColumns []string

	// CategoricalColumns are target encoded.
	// Default: canteen_id, school_year, neighborhood.
	CategoricalColumns []string

	// Smoothing is the target encoder smoothing weight. Default: 10.
	Smoothing float64

	// Cutoff, when set, makes the statistical stages reject rows dated at
	// or after it.
	Cutoff time.Time

	Regressor RegressorConfig
}

// RegressorConfig selects and tunes the final estimator.
type RegressorConfig struct {
	// Kind is gbm or ridge. Default: gbm.
	Kind string

	// Lambda is the ridge penalty. Default: 1.
	Lambda float64

	// NEstimators is the number of boosted trees. Default: 200.
	NEstimators int

	// MaxDepth bounds every tree. Default: 6.
	MaxDepth int

	// LearningRate shrinks each tree. Default: 0.1.
	LearningRate float64

	// MinSamplesLeaf is the smallest leaf. Default: 20.
	MinSamplesLeaf int
}

// DefaultConfig returns the production pipeline configuration.
func DefaultConfig() Config {
	median := append([]string(nil), attendance.ContextColumns...)
	median = append(median, ColActualRatioMean, ColActualRatioStd)
	return Config{
		Divisor:            DivisorPeriod,
		MedianColumns:      median,
		CategoricalColumns: append([]string(nil), attendance.CategoricalColumns...),
		Smoothing:          DefaultSmoothing,
		Regressor: RegressorConfig{
			Kind:           RegressorGBM,
			Lambda:         1,
			NEstimators:    200,
			MaxDepth:       6,
			LearningRate:   0.1,
			MinSamplesLeaf: 20,
		},
	}
}

// Build assembles the attendance pipeline:
//
//	date_features -> statistical_features -> interpolate_imputation ->
//	median_imputation -> categ_imputation -> scaler -> regressor
func Build(cfg Config, version string) (*Pipeline, error) {
	dates, err := NewDatetimeFeatures(attendance.ColDate, cfg.Divisor)
	if err != nil {
		return nil, err
	}

	stats, err := NewGroupStatistics(
		GroupKeys{Canteen: attendance.ColCanteenID, Week: ColWeek, SchoolYear: attendance.ColSchoolYear},
		attendance.ColForecast, attendance.ColEnrollment, attendance.ColActual, attendance.ColDate,
	)
	if err != nil {
		return nil, err
	}
	stats.Cutoff = cfg.Cutoff
	stats.KeepForecastRatio = cfg.KeepForecastRatio

	interp, err := NewInterpolationImputer(attendance.ColForecast, attendance.ColCanteenID, attendance.ColDate)
	if err != nil {
		return nil, err
	}

	medianColumns := append([]string(nil), cfg.MedianColumns...)
	if cfg.KeepForecastRatio {
		for _, c := range []string{ColForecastRatioMean, ColForecastRatioStd} {
			if !slices.Contains(medianColumns, c) {
				medianColumns = append(medianColumns, c)
			}
		}
	}
	median, err := NewMedianImputer(medianColumns)
	if err != nil {
		return nil, err
	}

	encoder, err := NewTargetEncoder(cfg.CategoricalColumns, attendance.ColActual, cfg.Smoothing)
	if err != nil {
		return nil, err
	}
	encoder.DateColumn = attendance.ColDate
	encoder.Cutoff = cfg.Cutoff

	reg, err := NewRegressor(cfg.Regressor)
	if err != nil {
		return nil, err
	}

	return NewBuilder(attendance.ColActual).
		Add("date_features", dates).
		Add("statistical_features", stats).
		Add("interpolate_imputation", interp).
		Add("median_imputation", median).
		Add("categ_imputation", encoder).
		Add("scaler", NewStandardScaler(attendance.ColActual)).
		WithRegressor(reg).
		Version(version).
		Build()
}

// NewRegressor builds the configured estimator.
func NewRegressor(cfg RegressorConfig) (Regressor, error) {
	switch cfg.Kind {
	case RegressorGBM:
		return NewGradientBoosting(cfg.NEstimators, cfg.MaxDepth, cfg.MinSamplesLeaf, cfg.LearningRate)
	case RegressorRidge:
		return NewRidge(cfg.Lambda)
	default:
		return nil, configErr("regressor", "unknown kind %q", cfg.Kind)
	}
}

// Builder assembles a Pipeline step by step.
type Builder struct {
	p   *Pipeline
	err error
}

// NewBuilder starts a pipeline whose target column is target.
func NewBuilder(target string) *Builder {
	b := &Builder{p: &Pipeline{Target: target}}
	if target == "" {
		b.err = configErr("pipeline", "target column name is empty")
	}
	return b
}

// Add appends a named stage. Names must be unique.
func (b *Builder) Add(name string, s Stage) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" || s == nil {
		b.err = configErr("pipeline", "step %d needs a name and a stage", len(b.p.Steps))
		return b
	}
	for _, st := range b.p.Steps {
		if st.Name == name {
			b.err = configErr("pipeline", "duplicate step name %q", name)
			return b
		}
	}
	b.p.Steps = append(b.p.Steps, Step{Name: name, Stage: s})
	return b
}

// WithRegressor sets the final estimator.
func (b *Builder) WithRegressor(r Regressor) *Builder {
	b.p.Regressor = r
	return b
}

// Version tags the pipeline.
func (b *Builder) Version(v string) *Builder {
	b.p.Version = v
	return b
}

// Build returns the pipeline or the first configuration error.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.p.Steps) == 0 && b.p.Regressor == nil {
		return nil, configErr("pipeline", "no steps")
	}
	return b.p, nil
}
