// Package config loads the service configuration from a TOML file, with
// defaults that match the client timing contracts (heartbeat interval,
// debounce window, typing timeout).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultAddr                     = ":8080"
	defaultDriver                   = "sqlite3"
	defaultDSN                      = "chatcore.db"
	defaultHeartbeatIntervalSeconds = 30
	defaultTypingTimeoutMS          = 1000
	defaultTypingTTLMS              = 3000
	defaultDebounceWindowMS         = 500
	defaultBulkReadThreshold        = 5
)

type Config struct {
	Addr   string `toml:"addr"`
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
	Chat   Chat   `toml:"chat"`
	SMTP   SMTP   `toml:"smtp"`
}

// Chat holds the timing contracts for delivery tracking.
type Chat struct {
	HeartbeatIntervalSeconds int `toml:"heartbeat_interval_seconds"`
	TypingTimeoutMS          int `toml:"typing_timeout_ms"`
	TypingTTLMS              int `toml:"typing_ttl_ms"`
	DebounceWindowMS         int `toml:"debounce_window_ms"`
	BulkReadThreshold        int `toml:"bulk_read_threshold"`
}

type SMTP struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

func Default() Config {
	return Config{
		Addr:   defaultAddr,
		Driver: defaultDriver,
		DSN:    defaultDSN,
		Chat: Chat{
			HeartbeatIntervalSeconds: defaultHeartbeatIntervalSeconds,
			TypingTimeoutMS:          defaultTypingTimeoutMS,
			TypingTTLMS:              defaultTypingTTLMS,
			DebounceWindowMS:         defaultDebounceWindowMS,
			BulkReadThreshold:        defaultBulkReadThreshold,
		},
	}
}

// Load reads the config at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Chat) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSeconds) * time.Second
}

func (c Chat) TypingTimeout() time.Duration {
	return time.Duration(c.TypingTimeoutMS) * time.Millisecond
}

func (c Chat) TypingTTL() time.Duration {
	return time.Duration(c.TypingTTLMS) * time.Millisecond
}

func (c Chat) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceWindowMS) * time.Millisecond
}
