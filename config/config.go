// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (Discord token, Twitch client id/secret), use ValidateNotifyReady.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// Discord
	DiscordToken      string
	GeneralChannelID  string
	PriorityChannelID string
	ModRoleID         string

	// Twitch
	TwitchClientID     string
	TwitchClientSecret string

	// PriorityStreamer is the login whose go-live notifications get the
	// priority channel and an @everyone mention. Lowercased. Empty disables
	// the priority path.
	PriorityStreamer string

	// Polling
	PollInterval time.Duration
	FetchTimeout time.Duration

	// Storage
	DataDir string

	// HTTP sidecar
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail if credentials
// are missing; use ValidateNotifyReady() before starting the bot. Malformed durations fail
// loudly rather than silently falling back.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	cfg.GeneralChannelID = os.Getenv("GENERAL_CHANNEL_ID")
	cfg.PriorityChannelID = os.Getenv("PRIORITY_CHANNEL_ID")
	cfg.ModRoleID = os.Getenv("MOD_ROLE_ID")

	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")

	cfg.PriorityStreamer = strings.ToLower(strings.TrimSpace(os.Getenv("PRIORITY_STREAMER")))

	cfg.PollInterval = 2 * time.Minute
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: want a positive Go duration", v)
		}
		cfg.PollInterval = d
	}

	cfg.FetchTimeout = 10 * time.Second
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT %q: want a positive Go duration", v)
		}
		cfg.FetchTimeout = d
	}

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// ValidateNotifyReady checks the fields required to run the notifier: the Discord
// bot token, Twitch API credentials, and the general notification channel.
func (c *Config) ValidateNotifyReady() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("missing discord env: require DISCORD_TOKEN")
	}
	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET")
	}
	if c.GeneralChannelID == "" {
		return fmt.Errorf("missing discord env: require GENERAL_CHANNEL_ID")
	}
	return nil
}
