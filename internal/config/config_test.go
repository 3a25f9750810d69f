package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every key this package reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY", "SWAGGER_ENABLED",
		"API_BASE_PATH", "DB_PATH", "SWEEP_INTERVAL", "INACTIVITY_THRESHOLD",
		"PRESENCE_BACKEND", "REDIS_ADDR", "STREAM_BUFFER", "NATS_URL",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS", "ENABLE_HSTS", "HSTS_MAX_AGE",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Presence.SweepInterval != 60*time.Second {
		t.Errorf("SweepInterval = %v", cfg.Presence.SweepInterval)
	}
	if cfg.Presence.InactivityThreshold != 2*time.Minute {
		t.Errorf("InactivityThreshold = %v", cfg.Presence.InactivityThreshold)
	}
	if cfg.Presence.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.Presence.Backend)
	}
	if cfg.Realtime.StreamBuffer != 32 {
		t.Errorf("StreamBuffer = %d", cfg.Realtime.StreamBuffer)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SWEEP_INTERVAL", "5s")
	t.Setenv("INACTIVITY_THRESHOLD", "30s")
	t.Setenv("PRESENCE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Presence.SweepInterval != 5*time.Second {
		t.Errorf("SweepInterval = %v", cfg.Presence.SweepInterval)
	}
	if cfg.Presence.Backend != "redis" || cfg.Presence.RedisAddr != "localhost:6379" {
		t.Errorf("presence backend = %+v", cfg.Presence)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		key, val, wantSub string
	}{
		{"LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"SWEEP_INTERVAL", "-1s", "SWEEP_INTERVAL"},
		{"INACTIVITY_THRESHOLD", "-2m", "INACTIVITY_THRESHOLD"},
		{"PRESENCE_BACKEND", "mongo", "PRESENCE_BACKEND"},
		{"STREAM_BUFFER", "0", "STREAM_BUFFER"},
		{"RATE_RPS", "-1", "RATE_RPS"},
		{"RATE_BURST", "0", "RATE_BURST"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("want error mentioning %s, got %v", tc.wantSub, err)
			}
		})
	}
}

func TestLoad_RedisBackendRequiresAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRESENCE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when REDIS_ADDR is missing")
	}
}
