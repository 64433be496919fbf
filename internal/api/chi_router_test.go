// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cantine/internal/config"
)

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, nil)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:3000", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/predict", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "Content-Type")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, func(c *ChiMiddlewareConfig) {
		c.RateLimitRequests = 2
		c.RateLimitWindow = time.Minute
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := get("/api/v1/health"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := get("/api/v1/health")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", body.Code)
	}

	// The root health check is outside the limited group.
	if rec := get("/health"); rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, func(c *ChiMiddlewareConfig) {
		c.RateLimitRequests = 1
		c.RateLimitDisabled = true
	})
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, failingPredictor{}, 0, nil)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `api_requests_total{endpoint="/health"`) {
		t.Error("metrics output lacks the /health request counter")
	}
}

func TestChiMiddlewareConfigFrom(t *testing.T) {
	api := config.APIConfig{
		CORSOrigins:       []string{"https://cantine.example"},
		RateLimitReqs:     7,
		RateLimitWindow:   time.Second,
		RateLimitDisabled: true,
		RequestTimeout:    5 * time.Second,
	}
	c := ChiMiddlewareConfigFrom(&api)

	if len(c.CORSAllowedOrigins) != 1 || c.CORSAllowedOrigins[0] != "https://cantine.example" {
		t.Errorf("CORSAllowedOrigins = %v", c.CORSAllowedOrigins)
	}
	if c.RateLimitRequests != 7 || c.RateLimitWindow != time.Second || !c.RateLimitDisabled {
		t.Errorf("rate limit = %d/%v disabled=%v", c.RateLimitRequests, c.RateLimitWindow, c.RateLimitDisabled)
	}
	if got := NewChiMiddleware(c).RequestTimeout(); got != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", got)
	}

	api.CORSOrigins[0] = "changed"
	if c.CORSAllowedOrigins[0] != "https://cantine.example" {
		t.Error("origins slice is shared with the config")
	}
	if got := NewChiMiddleware(&ChiMiddlewareConfig{}).RequestTimeout(); got != 30*time.Second {
		t.Errorf("zero RequestTimeout() = %v, want 30s", got)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	got := sanitizeLogValue("line one\r\nline two" + strings.Repeat("x", 300))
	if strings.ContainsAny(got, "\r\n") {
		t.Errorf("line breaks kept: %q", got)
	}
	if len(got) != 200 {
		t.Errorf("len = %d, want 200", len(got))
	}
}
