package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release", cfg.GinMode)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api" {
		t.Errorf("APIBasePath = %q, want /api", cfg.APIBasePath)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("Mongo.URI = %q", cfg.Mongo.URI)
	}
	if cfg.Mongo.Database != "social" {
		t.Errorf("Mongo.Database = %q, want social", cfg.Mongo.Database)
	}
	if cfg.Mongo.ConnectTimeout != 10*time.Second {
		t.Errorf("Mongo.ConnectTimeout = %v, want 10s", cfg.Mongo.ConnectTimeout)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Errorf("rate limits = (%v, %d), want (5, 10)", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.OTEL.Enabled || cfg.SwaggerEnabled {
		t.Error("OTEL and Swagger must be off by default")
	}
	if cfg.OTEL.SampleRatio != 1.0 {
		t.Errorf("OTEL.SampleRatio = %v, want 1.0", cfg.OTEL.SampleRatio)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "DEBUG")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("API_BASE_PATH", "v2/")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DB", "network")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("READ_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.GinMode != "debug" {
		t.Errorf("GinMode = %q, want lowercased debug", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warning normalized to warn", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/v2" {
		t.Errorf("APIBasePath = %q, want /v2", cfg.APIBasePath)
	}
	if cfg.Mongo.Database != "network" {
		t.Errorf("Mongo.Database = %q, want network", cfg.Mongo.Database)
	}
	if cfg.RateRPS != 2.5 {
		t.Errorf("RateRPS = %v, want 2.5", cfg.RateRPS)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", cfg.ReadTimeout)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORS.AllowedOrigins) != 2 ||
		cfg.CORS.AllowedOrigins[0] != want[0] ||
		cfg.CORS.AllowedOrigins[1] != want[1] {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"negative rate", "RATE_RPS", "-1", "RATE_RPS"},
		{"zero burst", "RATE_BURST", "0", "RATE_BURST"},
		{"sample ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
		{"zero connect timeout", "MONGO_CONNECT_TIMEOUT", "-1s", "MONGO_CONNECT_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoadCoercesUnknownGinMode(t *testing.T) {
	t.Setenv("GIN_MODE", "production")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release", cfg.GinMode)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":       "/",
		"/":      "/",
		"api":    "/api",
		"/api":   "/api",
		"/api/":  "/api",
		"v1/x//": "/v1/x",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG", "on")
	if !getbool("FLAG", false) {
		t.Error(`getbool("on") = false, want true`)
	}
	t.Setenv("FLAG", "OFF")
	if getbool("FLAG", true) {
		t.Error(`getbool("OFF") = true, want false`)
	}
	t.Setenv("FLAG", "maybe")
	if !getbool("FLAG", true) {
		t.Error("unparseable value must fall back to the default")
	}
}
