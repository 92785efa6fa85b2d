// Package config loads optional per-directory defaults from .tagroll.yaml.
// Command-line flags always win over config values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is looked up in the working directory.
	DefaultFileName = ".tagroll.yaml"

	DefaultHistoryFile = ".deploy-history.json"
	DefaultJournalPath = ".tagroll.db"
	DefaultLimit       = 20
	DefaultListenAddr  = "127.0.0.1:8335"
)

// JournalConfig controls the optional sqlite command journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config holds the tool's per-directory defaults.
type Config struct {
	// HistoryFile is the deployment history JSON file.
	HistoryFile string `yaml:"history_file"`

	// Service is the default service/container name for docker and pm2
	// deployments when --service is not given.
	Service string `yaml:"service"`

	// Limit is the default number of entries shown by list.
	Limit int `yaml:"limit"`

	// Listen is the default address for the serve command.
	Listen string `yaml:"listen"`

	Journal JournalConfig `yaml:"journal"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		HistoryFile: DefaultHistoryFile,
		Limit:       DefaultLimit,
		Listen:      DefaultListenAddr,
		Journal:     JournalConfig{Path: DefaultJournalPath},
	}
}

// Load reads the config file at path. A missing file yields defaults; a
// file that exists but cannot be parsed is an error, since it is
// user-authored and silently ignoring it would hide typos.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Re-apply defaults for fields an explicit config zeroed out.
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListenAddr
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}

	return cfg, nil
}
