// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package config

import (
	"fmt"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validDivisors = map[string]bool{
	"period":    true,
	"batch_max": true,
}

var validRegressors = map[string]bool{
	"gbm":   true,
	"ridge": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateLogging,
		c.validatePipeline,
		c.validateTraining,
		c.validateModel,
		c.validateAPI,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0 (0 = NumCPU)")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validatePipeline validates the feature and regressor settings
func (c *Config) validatePipeline() error {
	p := c.Pipeline
	if !validDivisors[p.CyclicalDivisor] {
		return fmt.Errorf("CYCLICAL_DIVISOR must be one of: period, batch_max")
	}
	if !validRegressors[p.Regressor] {
		return fmt.Errorf("REGRESSOR must be one of: gbm, ridge")
	}
	if p.Smoothing < 0 {
		return fmt.Errorf("ENCODER_SMOOTHING must be >= 0")
	}

	switch p.Regressor {
	case "ridge":
		if p.Lambda < 0 {
			return fmt.Errorf("RIDGE_LAMBDA must be >= 0")
		}
	case "gbm":
		if p.NEstimators < 1 {
			return fmt.Errorf("GBM_N_ESTIMATORS must be at least 1")
		}
		if p.MaxDepth < 1 {
			return fmt.Errorf("GBM_MAX_DEPTH must be at least 1")
		}
		if p.LearningRate <= 0 || p.LearningRate > 1 {
			return fmt.Errorf("GBM_LEARNING_RATE must be in (0, 1]")
		}
		if p.MinSamplesLeaf < 1 {
			return fmt.Errorf("GBM_MIN_LEAF must be at least 1")
		}
	}
	return nil
}

func (c *Config) validateTraining() error {
	if _, err := time.Parse(DateLayout, c.Training.SplitDate); err != nil {
		return fmt.Errorf("SPLIT_DATE must be a YYYY-MM-DD date, got %q", c.Training.SplitDate)
	}
	if c.Training.OutlierN < 0 {
		return fmt.Errorf("OUTLIER_N must be >= 0")
	}
	return nil
}

func (c *Config) validateModel() error {
	if c.Model.Name == "" {
		return fmt.Errorf("MODEL_NAME is required")
	}
	if strings.ContainsAny(c.Model.Name, `/\`) {
		return fmt.Errorf("MODEL_NAME must not contain path separators")
	}
	if c.Model.Dir == "" {
		return fmt.Errorf("MODEL_DIR is required")
	}
	if strings.Contains(c.Model.Version, "_v") {
		return fmt.Errorf("MODEL_VERSION must not contain %q", "_v")
	}
	if c.Model.ReloadInterval < 0 {
		return fmt.Errorf("MODEL_RELOAD_INTERVAL must not be negative")
	}
	return nil
}

// validateAPI validates CORS and rate limit bounds
func (c *Config) validateAPI() error {
	if len(c.API.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin (use * to allow all)")
	}
	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be at least 1")
		}
		if c.API.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}
	if c.API.MaxBodyBytes < 1 {
		return fmt.Errorf("API_MAX_BODY_BYTES must be positive")
	}
	return nil
}
