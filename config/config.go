// Copyright 2025 TejaData
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

// Package config loads the service configuration from a YAML file with
// environment variable expansion, then applies direct environment
// overrides on top. Every field has a working default so the service
// boots with no config file at all.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tejadata/guardrails/evaluator"
)

const (
	DefaultPort      = 8000
	DefaultThreshold = 0.5
	DefaultQueueSize = 1024
)

// Config is the root configuration for the guardrails service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Guardrails GuardrailsConfig `yaml:"guardrails"`
	Anomaly    AnomalyConfig    `yaml:"anomaly"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// GuardrailsConfig holds evaluator defaults applied when a request
// leaves the corresponding field unset.
type GuardrailsConfig struct {
	Threshold          float64                   `yaml:"threshold"`
	Entities           []string                  `yaml:"entities,omitempty"`
	CustomPatterns     []evaluator.CustomPattern `yaml:"custom_patterns,omitempty"`
	BannedWordsLoc     string                    `yaml:"banned_words_location,omitempty"`
	CompetitorWordsLoc string                    `yaml:"competitor_words_location,omitempty"`
	Action             string                    `yaml:"action,omitempty"`
}

// AnomalyConfig holds the anomaly logging settings. An empty DSN keeps
// anomalies in memory only.
type AnomalyConfig struct {
	DBDSN     string `yaml:"db_dsn,omitempty"`
	QueueSize int    `yaml:"queue_size,omitempty"`
}

// Default returns a config with every field at its working default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           DefaultPort,
			AllowedOrigins: []string{"*"},
		},
		Guardrails: GuardrailsConfig{
			Threshold: DefaultThreshold,
			Action:    string(evaluator.ActionMask),
		},
		Anomaly: AnomalyConfig{
			QueueSize: DefaultQueueSize,
		},
	}
}

// Load reads the config file at path (skipped when path is empty),
// expands environment references, applies env overrides, and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override the file
// without editing it.
func applyEnvOverrides(cfg *Config) {
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		}
	}
	if dsn := os.Getenv("ANOMALY_DB_DSN"); dsn != "" {
		cfg.Anomaly.DBDSN = dsn
	}
	if loc := os.Getenv("BANNED_WORDS_LOCATION"); loc != "" {
		cfg.Guardrails.BannedWordsLoc = loc
	}
	if loc := os.Getenv("COMPETITOR_WORDS_LOCATION"); loc != "" {
		cfg.Guardrails.CompetitorWordsLoc = loc
	}
}

// Validate checks the assembled config.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Guardrails.Threshold <= 0 || c.Guardrails.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", c.Guardrails.Threshold)
	}
	switch evaluator.Action(c.Guardrails.Action) {
	case evaluator.ActionMask, evaluator.ActionBlock:
	default:
		return fmt.Errorf("action must be %q or %q, got %q",
			evaluator.ActionMask, evaluator.ActionBlock, c.Guardrails.Action)
	}
	for i, pattern := range c.Guardrails.CustomPatterns {
		if err := pattern.Validate(); err != nil {
			return fmt.Errorf("custom pattern %d: %w", i, err)
		}
	}
	if c.Anomaly.QueueSize <= 0 {
		return fmt.Errorf("anomaly queue size must be positive, got %d", c.Anomaly.QueueSize)
	}
	return nil
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Supports ${VAR_NAME}, $VAR_NAME, and ${VAR_NAME:-default} syntax.
// Undefined variables expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}
