// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/metrics"
	"github.com/tomtom215/cantine/internal/pipeline"
	"github.com/tomtom215/cantine/internal/pipeline/storage"
	"github.com/tomtom215/cantine/internal/predict"
)

// ModelSource loads stored pipelines. Satisfied by *storage.Store.
type ModelSource interface {
	Load(ctx context.Context, name, version string) (*pipeline.Pipeline, *storage.Metadata, error)
}

// ModelReloadService polls the model store and swaps in a newly saved
// version of the served pipeline. A failed poll is logged and retried on
// the next tick; the current predictor keeps serving.
type ModelReloadService struct {
	source   ModelSource
	live     *predict.Live
	model    string
	interval time.Duration
	name     string
}

// NewModelReloadService polls source for the latest version of model every
// interval. A non-positive interval means one minute.
func NewModelReloadService(source ModelSource, live *predict.Live, model string, interval time.Duration) *ModelReloadService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ModelReloadService{
		source:   source,
		live:     live,
		model:    model,
		interval: interval,
		name:     "model-reload",
	}
}

// Serve implements suture.Service.
func (s *ModelReloadService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Str("model", s.model).Msg("Model reload failed, keeping current version")
			}
		}
	}
}

// Reload loads the latest stored version and swaps it in when it differs
// from the one being served. It reports whether a swap happened.
func (s *ModelReloadService) Reload(ctx context.Context) (bool, error) {
	p, _, err := s.source.Load(ctx, s.model, "")
	if err != nil {
		metrics.ModelReloads.WithLabelValues("error").Inc()
		return false, err
	}

	current := s.live.Version()
	if p.Version == current {
		metrics.ModelReloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	pr, err := predict.New(p)
	if err != nil {
		metrics.ModelReloads.WithLabelValues("error").Inc()
		return false, fmt.Errorf("wrap %s version %s: %w", s.model, p.Version, err)
	}
	s.live.Swap(pr)
	metrics.ModelReloads.WithLabelValues("swapped").Inc()
	metrics.SetModelVersion(p.Version)

	logging.Info().
		Str("model", s.model).
		Str("from", current).
		Str("to", p.Version).
		Msg("Swapped in new model version")
	return true, nil
}

// String names the service in suture events.
func (s *ModelReloadService) String() string {
	return s.name
}
