package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig is the configuration the process is currently running with.
	globalConfig *Config
	configMutex  sync.RWMutex
)

// GetConfig returns the process-wide configuration, or nil before the CLI
// has loaded one.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig installs cfg as the process-wide configuration.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig loads path again and installs the result. On error the
// running configuration is kept.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	SetConfig(cfg)
	return cfg, nil
}

// MustGetConfig returns the process-wide configuration and panics when none
// has been loaded.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not loaded")
	}
	return cfg
}
