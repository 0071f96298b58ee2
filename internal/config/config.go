// Copyright 2025 The gitpulse Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for gitpulse with support
// for multiple configuration sources and a well-defined precedence order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file (YAML or TOML, chosen by extension)
//  4. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from the given file path, or from standard
// locations when configPath is empty:
//   - .gitpulse.yaml / .gitpulse.yml / .gitpulse.toml (current directory)
//   - ~/.gitpulse/config.yaml
//   - ~/.gitpulse/config.toml
//
// Environment variables are applied after the config file, allowing runtime
// overrides. Missing files in standard locations are not an error; a missing
// explicit configPath is.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".gitpulse.yaml",
			".gitpulse.yml",
			".gitpulse.toml",
			filepath.Join(os.Getenv("HOME"), ".gitpulse", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".gitpulse", "config.toml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	cfg.Defaults.StateDir = expandPath(cfg.Defaults.StateDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile reads and parses a config file. The format is chosen by
// extension: .toml parses as TOML, everything else as YAML.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}
	if tokenEnv := os.Getenv("GITPULSE_TOKEN_ENV"); tokenEnv != "" {
		cfg.GitHub.TokenEnv = tokenEnv
	}
	if retries := os.Getenv("GITPULSE_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n >= 0 {
			cfg.Fetch.MaxRetries = n
		}
	}
	if backoff := os.Getenv("GITPULSE_RETRY_BACKOFF_BASE_MS"); backoff != "" {
		if n, err := strconv.Atoi(backoff); err == nil && n > 0 {
			cfg.Fetch.RetryBackoffBaseMs = n
		}
	}
	if timeout := os.Getenv("GITPULSE_REQUEST_TIMEOUT_MS"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil && n > 0 {
			cfg.Fetch.RequestTimeoutMs = n
		}
	}
	if pageCap := os.Getenv("GITPULSE_PAGE_CAP"); pageCap != "" {
		if n, err := strconv.Atoi(pageCap); err == nil && n >= 1 {
			cfg.Fetch.PageCap = n
		}
	}
	if stateDir := os.Getenv("GITPULSE_STATE_DIR"); stateDir != "" {
		cfg.Defaults.StateDir = stateDir
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// Validate checks the configuration for invalid values. Call this after
// loading configuration to catch bad settings early instead of at the first
// fetch call.
func (c *Config) Validate() error {
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GraphQL endpoint cannot be empty")
	}
	if !strings.HasPrefix(c.GitHub.GraphQLEndpoint, "http://") &&
		!strings.HasPrefix(c.GitHub.GraphQLEndpoint, "https://") {
		return fmt.Errorf("GraphQL endpoint must be an http(s) URL, got: %s", c.GitHub.GraphQLEndpoint)
	}
	if c.GitHub.TokenEnv == "" {
		return fmt.Errorf("token environment variable name cannot be empty")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got: %d", c.Fetch.MaxRetries)
	}
	if c.Fetch.RetryBackoffBaseMs <= 0 {
		return fmt.Errorf("retry backoff base must be positive, got: %d", c.Fetch.RetryBackoffBaseMs)
	}
	if c.Fetch.RequestTimeoutMs <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %d", c.Fetch.RequestTimeoutMs)
	}
	if c.Fetch.PageCap < 1 {
		return fmt.Errorf("page cap must be >= 1, got: %d", c.Fetch.PageCap)
	}
	return nil
}
