package config

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Load resolves the effective configuration for a command. The [[endpoints]]
// chain comes from config.toml; every scalar key then follows the viper
// precedence chain (flags named by flagKeys > SCREENS_ env > file > default).
// cmd may be nil when no flags apply.
func Load(cmd *cobra.Command, configDir string, flagKeys []string) (*Config, error) {
	cfger, err := NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}

	if cmd != nil {
		BindRegisteredFlags(v, cmd, Flags, flagKeys)
	}

	Overlay(v, cfg)
	return cfg, nil
}
