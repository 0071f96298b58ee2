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

package config

import "time"

// Config represents the complete configuration for gitpulse. It consolidates
// settings from config files, environment variables, and command-line flags
// into a single structure used throughout the application.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github" toml:"github"`
	Fetch    FetchConfig    `yaml:"fetch" toml:"fetch"`
	Defaults DefaultsConfig `yaml:"defaults" toml:"defaults"`
}

// GitHubConfig contains GitHub-specific settings including the GraphQL
// endpoint and authentication configuration. A custom endpoint supports
// GitHub Enterprise deployments.
type GitHubConfig struct {
	GraphQLEndpoint string `yaml:"graphql_endpoint" toml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env" toml:"token_env"`
}

// FetchConfig controls the behavior of a single fetch call: how often
// transient failures are retried, how backoff grows, the per-request
// timeout, and the pagination cap.
type FetchConfig struct {
	// MaxRetries is the number of retries after the first attempt for
	// transient (network, rate limit) failures.
	MaxRetries int `yaml:"max_retries" toml:"max_retries"`

	// RetryBackoffBaseMs is the initial backoff in milliseconds; each retry
	// doubles it up to an internal cap.
	RetryBackoffBaseMs int `yaml:"retry_backoff_base_ms" toml:"retry_backoff_base_ms"`

	// RequestTimeoutMs bounds each individual transport call. Exceeding it
	// counts as a transient failure against the retry budget.
	RequestTimeoutMs int `yaml:"request_timeout_ms" toml:"request_timeout_ms"`

	// PageCap is the maximum number of pages fetched per call. The shipped
	// query documents are single-page, so the default of 1 means no
	// auto-pagination.
	PageCap int `yaml:"page_cap" toml:"page_cap"`
}

// DefaultsConfig contains settings that are not per-fetch: where watermark
// state and fetch metadata are stored.
type DefaultsConfig struct {
	StateDir string `yaml:"state_dir" toml:"state_dir"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.RequestTimeoutMs) * time.Millisecond
}

// RetryBackoffBase returns the initial retry backoff as a duration.
func (c *Config) RetryBackoffBase() time.Duration {
	return time.Duration(c.Fetch.RetryBackoffBaseMs) * time.Millisecond
}

// DefaultConfig returns a Config with defaults suitable for public
// GitHub.com usage. Every value can be overridden by a config file,
// environment variables, or flags.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Fetch: FetchConfig{
			MaxRetries:         3,
			RetryBackoffBaseMs: 500,
			RequestTimeoutMs:   30000,
			PageCap:            1,
		},
		Defaults: DefaultsConfig{
			StateDir: "~/.gitpulse/state",
		},
	}
}
