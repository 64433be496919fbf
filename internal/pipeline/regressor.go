// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/cantine/internal/logging"
)

// Regressor is the final estimator of a pipeline.
type Regressor interface {
	// Fit learns from the design matrix X (rows are samples) and target y.
	Fit(X *mat.Dense, y []float64) error

	// Predict returns one value per row of X.
	Predict(X *mat.Dense) ([]float64, error)
}

// Ridge is least squares with an L2 penalty on the weights. The intercept
// is not penalized.
type Ridge struct {
	Lambda float64

	Weights   []float64
	Intercept float64
}

// NewRidge returns a ridge regressor.
func NewRidge(lambda float64) (*Ridge, error) {
	if lambda < 0 {
		return nil, configErr("ridge", "lambda must be non-negative, got %f", lambda)
	}
	return &Ridge{Lambda: lambda}, nil
}

// Fit solves (XcᵀXc + λI)w = Xcᵀyc on centered data.
func (r *Ridge) Fit(X *mat.Dense, y []float64) error {
	n, p := X.Dims()
	if n != len(y) {
		return fmt.Errorf("ridge: %d rows but %d targets", n, len(y))
	}

	means := make([]float64, p)
	xc := mat.DenseCopyOf(X)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, X)
		means[j] = stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			xc.Set(i, j, col[i]-means[j])
		}
	}
	yMean := stat.Mean(y, nil)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - yMean
	}

	var xtx mat.Dense
	xtx.Mul(xc.T(), xc)
	for j := 0; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+r.Lambda)
	}
	var xty mat.VecDense
	xty.MulVec(xc.T(), mat.NewVecDense(n, yc))

	var w mat.VecDense
	if err := w.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("ridge: solve: %w", err)
		}
		logging.Warn().Float64("condition", float64(cond)).Msg("ridge system is ill-conditioned")
	}

	r.Weights = make([]float64, p)
	for j := range r.Weights {
		r.Weights[j] = w.AtVec(j)
	}
	r.Intercept = yMean - floats.Dot(means, r.Weights)
	return nil
}

// Predict returns Xw + b.
func (r *Ridge) Predict(X *mat.Dense) ([]float64, error) {
	n, p := X.Dims()
	if p != len(r.Weights) {
		return nil, fmt.Errorf("ridge: %d features, fitted on %d", p, len(r.Weights))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = r.Intercept + floats.Dot(X.RawRowView(i), r.Weights)
	}
	return out, nil
}
