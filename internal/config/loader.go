/*
Copyright 2024 The Clair authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader assembles a Configuration from defaults, an optional YAML file
// and environment variables, in that priority order.
type Loader struct {
	// ConfigFile is the path to the YAML configuration file.
	ConfigFile string
	// EnvPrefix is the prefix for environment variables (defaults to
	// "CLAIR_OPERATOR").
	EnvPrefix string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		EnvPrefix: "CLAIR_OPERATOR",
	}
}

// WithConfigFile sets the configuration file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.ConfigFile = path
	return l
}

// Load loads configuration from all sources in priority order:
// 1. Default configuration
// 2. Configuration file (if specified)
// 3. Environment variables
func (l *Loader) Load() (*Configuration, error) {
	cfg := Default()

	if l.ConfigFile != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	l.loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Configuration) error {
	data, err := os.ReadFile(l.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", l.ConfigFile, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Configuration) {
	if val := l.getEnv("MAX_CONCURRENT_RECONCILES"); val != "" {
		cfg.Controller.MaxConcurrentReconciles = l.parseInt(val, cfg.Controller.MaxConcurrentReconciles)
	}
	if val := l.getEnv("RETRY_BUDGET"); val != "" {
		cfg.Controller.RetryBudget = l.parseInt(val, cfg.Controller.RetryBudget)
	}
	if val := l.getEnv("CONFLICT_REQUEUE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Controller.ConflictRequeue = d
		}
	}
	if val := l.getEnv("STEADY_REQUEUE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Controller.SteadyRequeue = d
		}
	}
	if val := l.getEnv("LEADER_ELECTION"); val != "" {
		cfg.Controller.LeaderElection = l.parseBool(val, cfg.Controller.LeaderElection)
	}
	if val := l.getEnv("LEADER_ELECTION_ID"); val != "" {
		cfg.Controller.LeaderElectionID = val
	}

	if val := l.getEnv("WEBHOOK_ENABLED"); val != "" {
		cfg.Webhook.Enabled = l.parseBool(val, cfg.Webhook.Enabled)
	}
	if val := l.getEnv("WEBHOOK_PORT"); val != "" {
		cfg.Webhook.Port = l.parseInt(val, cfg.Webhook.Port)
	}
	if val := l.getEnv("WEBHOOK_CERT_DIR"); val != "" {
		cfg.Webhook.CertDir = val
	}

	if val := l.getEnv("VALIDATION_MAX_CONCURRENT"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Validation.MaxConcurrent = n
		}
	}
	if val := l.getEnv("VALIDATION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Validation.Timeout = d
		}
	}

	if val := l.getEnv("IMAGE"); val != "" {
		cfg.Templates.Image = val
	}
	if val := l.getEnv("CONFIG_DOCUMENT"); val != "" {
		cfg.Templates.ConfigDocument = val
	}
}

func (l *Loader) getEnv(key string) string {
	return os.Getenv(l.EnvPrefix + "_" + key)
}

func (l *Loader) parseInt(val string, fallback int) int {
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	return fallback
}

func (l *Loader) parseBool(val string, fallback bool) bool {
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return fallback
}
