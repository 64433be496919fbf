// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cantine/internal/attendance/attendancetest"
	"github.com/tomtom215/cantine/internal/pipeline"
	"github.com/tomtom215/cantine/internal/pipeline/storage"
	"github.com/tomtom215/cantine/internal/predict"
	"github.com/tomtom215/cantine/internal/training"
)

// fitPipeline trains a small ridge pipeline tagged version.
func fitPipeline(t *testing.T, version string) *pipeline.Pipeline {
	t.Helper()
	cfg := training.DefaultConfig()
	cfg.SplitDate = time.Date(2017, time.September, 1, 0, 0, 0, 0, time.UTC)
	cfg.Version = version
	cfg.Pipeline.Regressor.Kind = pipeline.RegressorRidge
	opts := attendancetest.DefaultOptions()
	opts.SchoolYears = 2
	res, err := training.Run(context.Background(), cfg, attendancetest.History(opts))
	if err != nil {
		t.Fatalf("training.Run() error = %v", err)
	}
	return res.Pipeline
}

type fakeSource struct {
	mu    sync.Mutex
	p     *pipeline.Pipeline
	err   error
	calls int
}

func (f *fakeSource) Load(_ context.Context, name, version string) (*pipeline.Pipeline, *storage.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.p, &storage.Metadata{Name: name, Version: f.p.Version}, nil
}

func (f *fakeSource) set(p *pipeline.Pipeline, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.p, f.err = p, err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestModelReloadServiceReload(t *testing.T) {
	v1 := fitPipeline(t, "1.0.0")
	v2 := *v1
	v2.Version = "1.1.0"

	first, err := predict.New(v1)
	if err != nil {
		t.Fatalf("predict.New() error = %v", err)
	}
	live := predict.NewLive(first)
	source := &fakeSource{p: v1}
	svc := NewModelReloadService(source, live, "attendance_regression", time.Hour)

	swapped, err := svc.Reload(context.Background())
	if err != nil || swapped {
		t.Fatalf("Reload() same version = (%v, %v), want (false, nil)", swapped, err)
	}

	source.set(&v2, nil)
	swapped, err = svc.Reload(context.Background())
	if err != nil || !swapped {
		t.Fatalf("Reload() new version = (%v, %v), want (true, nil)", swapped, err)
	}
	if live.Version() != "1.1.0" {
		t.Errorf("live version = %q, want 1.1.0", live.Version())
	}

	source.set(nil, storage.ErrNotFound)
	if _, err := svc.Reload(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Reload() error = %v, want ErrNotFound", err)
	}
	if live.Version() != "1.1.0" {
		t.Errorf("failed reload changed version to %q", live.Version())
	}

	unfitted := pipeline.Pipeline{Version: "2.0.0"}
	source.set(&unfitted, nil)
	if _, err := svc.Reload(context.Background()); !errors.Is(err, pipeline.ErrNotFitted) {
		t.Errorf("Reload() unfitted error = %v, want ErrNotFitted", err)
	}
}

func TestModelReloadServiceServe(t *testing.T) {
	p := fitPipeline(t, "1.0.0")
	pr, err := predict.New(p)
	if err != nil {
		t.Fatalf("predict.New() error = %v", err)
	}
	source := &fakeSource{err: storage.ErrNotFound}
	svc := NewModelReloadService(source, predict.NewLive(pr), "attendance_regression", 10*time.Millisecond)

	if svc.String() != "model-reload" {
		t.Errorf("String() = %q, want model-reload", svc.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want DeadlineExceeded", err)
	}
	if source.callCount() < 2 {
		t.Errorf("source polled %d times, want several", source.callCount())
	}
}

func TestNewModelReloadServiceDefaultInterval(t *testing.T) {
	svc := NewModelReloadService(&fakeSource{}, nil, "m", 0)
	if svc.interval != time.Minute {
		t.Errorf("interval = %v, want 1m", svc.interval)
	}
}
