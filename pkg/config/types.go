package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent screens configuration stored as config.toml
// in the .screens/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Endpoints   []EndpointConfig  `toml:"endpoints,omitempty"`
	Generation  GenerationConfig  `toml:"generation"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// EndpointConfig describes one model endpoint in the fallback chain.
// Endpoints are tried in the order they appear in config.toml.
type EndpointConfig struct {
	Name     string `toml:"name"`
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url,omitempty"`
	Model    string `toml:"model,omitempty"`

	// APIKey is read verbatim. APIKeyEnv names an environment variable to
	// read the key from instead, so secrets can stay out of config.toml.
	APIKey    string `toml:"api_key,omitempty"`
	APIKeyEnv string `toml:"api_key_env,omitempty"`

	RequestsPerMinute int    `toml:"requests_per_minute,omitempty"`
	Timeout           string `toml:"timeout,omitempty"`
}

// GenerationConfig holds the fallback and output settings for screen generation.
type GenerationConfig struct {
	Count        int    `toml:"count,omitempty"`
	Attempts     int    `toml:"attempts,omitempty"`
	InitialDelay string `toml:"initial_delay,omitempty"`
	MaxDelay     string `toml:"max_delay,omitempty"`
	Placeholder  string `toml:"placeholder,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig selects and configures the event publisher.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// Durations parses the generation delays. Empty values are returned as zero.
func (g GenerationConfig) Durations() (time.Duration, time.Duration, error) {
	initial, err := parseDuration("generation.initial_delay", g.InitialDelay)
	if err != nil {
		return 0, 0, err
	}
	maxDelay, err := parseDuration("generation.max_delay", g.MaxDelay)
	if err != nil {
		return 0, 0, err
	}
	return initial, maxDelay, nil
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(key string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", key)
			}
			*field(c) = n
			return nil
		},
	}
}

func durationKey(key string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := parseDuration(key, v); err != nil {
				return err
			}
			*field(c) = v
			return nil
		},
	}
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func oneOfKey(key string, allowed []string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			for _, a := range allowed {
				if v == a {
					*field(c) = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for %s: %q (allowed: %v)", key, v, allowed)
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure. The
// [[endpoints]] array is edited in config.toml directly.
var configKeys = map[string]configKeyInfo{
	"generation.count":    intKey("generation.count", func(c *Config) *int { return &c.Generation.Count }),
	"generation.attempts": intKey("generation.attempts", func(c *Config) *int { return &c.Generation.Attempts }),
	"generation.initial_delay": durationKey("generation.initial_delay",
		func(c *Config) *string { return &c.Generation.InitialDelay }),
	"generation.max_delay": durationKey("generation.max_delay",
		func(c *Config) *string { return &c.Generation.MaxDelay }),
	"generation.placeholder": stringKey(func(c *Config) *string { return &c.Generation.Placeholder }),
	"api.listen":             stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target":      stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"storage.provider": oneOfKey("storage.provider", StorageProviders,
		func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"eventstream.provider": oneOfKey("eventstream.provider", EventStreamProviders,
		func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers": stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":   stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
}

// orderedKeys is the stable listing order, matching the TOML section layout.
var orderedKeys = []string{
	"generation.count",
	"generation.attempts",
	"generation.initial_delay",
	"generation.max_delay",
	"generation.placeholder",
	"api.listen",
	"client.api_target",
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"eventstream.provider",
	"eventstream.brokers",
	"eventstream.topic",
}
