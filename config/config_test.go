package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("FETCH_TIMEOUT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("HTTP_ADDR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PollInterval != 2*time.Minute {
		t.Errorf("PollInterval = %v, want 2m", cfg.PollInterval)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"POLL_INTERVAL", "banana"},
		{"POLL_INTERVAL", "-2m"},
		{"FETCH_TIMEOUT", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("POLL_INTERVAL", "")
			t.Setenv("FETCH_TIMEOUT", "")
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestPriorityStreamerLowercased(t *testing.T) {
	t.Setenv("PRIORITY_STREAMER", "  ShieOrie ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PriorityStreamer != "shieorie" {
		t.Errorf("PriorityStreamer = %q, want shieorie", cfg.PriorityStreamer)
	}
}

func TestValidateNotifyReady(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("TWITCH_CLIENT_ID", "id")
	t.Setenv("TWITCH_CLIENT_SECRET", "secret")
	t.Setenv("GENERAL_CHANNEL_ID", "123")
	cfg, _ := Load()
	if err := cfg.ValidateNotifyReady(); err != nil {
		t.Errorf("expected valid notify config, got %v", err)
	}

	t.Setenv("DISCORD_TOKEN", "")
	cfg, _ = Load()
	if err := cfg.ValidateNotifyReady(); err == nil {
		t.Errorf("expected error when DISCORD_TOKEN missing")
	}

	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("GENERAL_CHANNEL_ID", "")
	cfg, _ = Load()
	if err := cfg.ValidateNotifyReady(); err == nil {
		t.Errorf("expected error when GENERAL_CHANNEL_ID missing")
	}
}
