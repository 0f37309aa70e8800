// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads filescope configuration from YAML with defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/filescope/services/scope/telemetry"
)

// Analysis controls the analyzer.
type Analysis struct {
	// MaxDepth caps call-graph expansion depth.
	MaxDepth int `yaml:"max_depth"`

	// CacheSize is the number of parse results kept in memory.
	CacheSize int `yaml:"cache_size"`

	// Parallelism bounds concurrent file parsing. Zero means NumCPU.
	Parallelism int `yaml:"parallelism"`

	// Excludes are glob patterns removed from the workspace listing.
	Excludes []string `yaml:"excludes"`
}

// Server controls serve mode.
type Server struct {
	// Addr is the listen address, e.g. ":8630".
	Addr string `yaml:"addr"`

	// ShutdownGrace is how long in-flight requests get on shutdown.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// Watch controls watch mode.
type Watch struct {
	// Debounce coalesces change events arriving within this window.
	Debounce time.Duration `yaml:"debounce"`
}

// Config is the root configuration.
type Config struct {
	// WorkspaceRoot anchors the workspace file listing. Empty relaxes
	// closure admission to unconditional.
	WorkspaceRoot string `yaml:"workspace_root"`

	Analysis  Analysis         `yaml:"analysis"`
	Server    Server           `yaml:"server"`
	Watch     Watch            `yaml:"watch"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Analysis: Analysis{
			MaxDepth:  15,
			CacheSize: 512,
			Excludes:  []string{"**/dist/**", "**/build/**", "**/coverage/**"},
		},
		Server: Server{
			Addr:          ":8630",
			ShutdownGrace: 10 * time.Second,
		},
		Watch: Watch{
			Debounce: 250 * time.Millisecond,
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads a YAML config file over the defaults. A missing path (empty
// string) returns the defaults unchanged.
//
// Outputs:
//   - Config: The merged configuration
//   - error: Read, parse, or validation failure
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values and compiles exclude patterns.
func (c *Config) Validate() error {
	if c.Analysis.MaxDepth <= 0 {
		return fmt.Errorf("analysis.max_depth must be positive, got %d", c.Analysis.MaxDepth)
	}
	if c.Analysis.CacheSize <= 0 {
		return fmt.Errorf("analysis.cache_size must be positive, got %d", c.Analysis.CacheSize)
	}
	if c.Analysis.Parallelism < 0 {
		return fmt.Errorf("analysis.parallelism must not be negative, got %d", c.Analysis.Parallelism)
	}
	for _, pattern := range c.Analysis.Excludes {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("analysis.excludes pattern %q: %w", pattern, err)
		}
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce)
	}
	return nil
}
