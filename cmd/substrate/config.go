package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config describes how to reach the store.
type config struct {
	// Engine selects the backend: leveldb (default), bolt, or memory.
	Engine string `yaml:"engine"`
	// Path is the database location (a directory for leveldb, a file for
	// bolt; ignored for memory).
	Path string `yaml:"path"`
}

func loadConfig(path string) (config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Engine != "memory" && cfg.Path == "" {
		return config{}, fmt.Errorf("config %s: path is required for engine %q", path, cfg.Engine)
	}
	return cfg, nil
}
