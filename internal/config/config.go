// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/pipeline"
	"github.com/tomtom215/cantine/internal/training"
)

// DateLayout is the layout of every date setting.
const DateLayout = time.DateOnly

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Training TrainingConfig `koanf:"training"`
	Model    ModelConfig    `koanf:"model"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Name            string        `koanf:"name"`        // Reported by /health
	APIVersion      string        `koanf:"api_version"` // Reported by /health
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds DuckDB warehouse settings
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)
}

// LoggingConfig holds zerolog settings
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// PipelineConfig holds feature engineering and regressor settings
type PipelineConfig struct {
	CyclicalDivisor   string  `koanf:"cyclical_divisor"` // period or batch_max
	KeepForecastRatio bool    `koanf:"keep_forecast_ratio"`
	Smoothing         float64 `koanf:"smoothing"`
	Regressor         string  `koanf:"regressor"` // gbm or ridge
	Lambda            float64 `koanf:"lambda"`
	NEstimators       int     `koanf:"n_estimators"`
	MaxDepth          int     `koanf:"max_depth"`
	LearningRate      float64 `koanf:"learning_rate"`
	MinSamplesLeaf    int     `koanf:"min_samples_leaf"`
}

// TrainingConfig holds the offline training settings
type TrainingConfig struct {
	SplitDate string  `koanf:"split_date"` // YYYY-MM-DD, first test day
	OutlierN  float64 `koanf:"outlier_n"`
}

// ModelConfig locates the persisted pipeline
type ModelConfig struct {
	Name    string `koanf:"name"`
	Dir     string `koanf:"dir"`
	Version string `koanf:"version"` // Empty loads the latest saved version

	// ReloadInterval polls the store for a newer version. Zero disables it,
	// as does a pinned Version.
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// APIConfig holds inference API settings
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`
}

// Load reads the configuration from defaults, the optional config file and
// the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoggingOptions converts the logging section for logging.Init.
func (c *Config) LoggingOptions() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}

// PipelineOptions converts the pipeline section, keeping the column
// defaults of pipeline.DefaultConfig.
func (c *Config) PipelineOptions() pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Divisor = pipeline.DivisorMode(c.Pipeline.CyclicalDivisor)
	pc.KeepForecastRatio = c.Pipeline.KeepForecastRatio
	pc.Smoothing = c.Pipeline.Smoothing
	pc.Regressor = pipeline.RegressorConfig{
		Kind:           c.Pipeline.Regressor,
		Lambda:         c.Pipeline.Lambda,
		NEstimators:    c.Pipeline.NEstimators,
		MaxDepth:       c.Pipeline.MaxDepth,
		LearningRate:   c.Pipeline.LearningRate,
		MinSamplesLeaf: c.Pipeline.MinSamplesLeaf,
	}
	return pc
}

// TrainingOptions converts the training section. The pipeline is tagged
// with the model version.
func (c *Config) TrainingOptions() (training.Config, error) {
	split, err := time.Parse(DateLayout, c.Training.SplitDate)
	if err != nil {
		return training.Config{}, fmt.Errorf("training.split_date: %w", err)
	}
	version := c.Model.Version
	if version == "" {
		version = training.DefaultConfig().Version
	}
	return training.Config{
		SplitDate: split,
		OutlierN:  c.Training.OutlierN,
		Version:   version,
		Pipeline:  c.PipelineOptions(),
	}, nil
}
