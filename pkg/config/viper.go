package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/screens/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SCREENS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SCREENS_API_LISTEN, SCREENS_STORAGE_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SCREENS_API_LISTEN, SCREENS_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("SCREENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Generation
	v.SetDefault("generation.count", d.Generation.Count)
	v.SetDefault("generation.attempts", d.Generation.Attempts)
	v.SetDefault("generation.initial_delay", d.Generation.InitialDelay)
	v.SetDefault("generation.max_delay", d.Generation.MaxDelay)
	v.SetDefault("generation.placeholder", d.Generation.Placeholder)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// Overlay copies viper-resolved scalar settings (flags, env, file, defaults)
// onto cfg. The [[endpoints]] array is not handled by viper and is left as is.
func Overlay(v *viper.Viper, cfg *Config) {
	cfg.Generation.Count = v.GetInt("generation.count")
	cfg.Generation.Attempts = v.GetInt("generation.attempts")
	cfg.Generation.InitialDelay = v.GetString("generation.initial_delay")
	cfg.Generation.MaxDelay = v.GetString("generation.max_delay")
	cfg.Generation.Placeholder = v.GetString("generation.placeholder")

	cfg.API.Listen = v.GetString("api.listen")
	cfg.Client.APITarget = v.GetString("client.api_target")

	cfg.Storage.Provider = v.GetString("storage.provider")
	cfg.Storage.SQLitePath = v.GetString("storage.sqlite_path")
	cfg.Storage.PostgresDSN = v.GetString("storage.postgres_dsn")

	cfg.EventStream.Provider = v.GetString("eventstream.provider")
	cfg.EventStream.Brokers = v.GetString("eventstream.brokers")
	cfg.EventStream.Topic = v.GetString("eventstream.topic")
}
