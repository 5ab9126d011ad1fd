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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejadata/guardrails/evaluator"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guardrails.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultThreshold, cfg.Guardrails.Threshold)
	assert.Equal(t, "mask", cfg.Guardrails.Action)
	assert.Equal(t, DefaultQueueSize, cfg.Anomaly.QueueSize)
	assert.Empty(t, cfg.Anomaly.DBDSN)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
  allowed_origins:
    - https://app.example.com
guardrails:
  threshold: 0.7
  entities:
    - EMAIL_ADDRESS
    - US_SSN
  custom_patterns:
    - entity_name: EMPLOYEE_ID
      regex: 'EMP-\d{6}'
      score: 0.9
  banned_words_location: /etc/guardrails/banned.txt
  action: block
anomaly:
  db_dsn: postgres://guard:secret@db:5432/anomalies
  queue_size: 256
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 0.7, cfg.Guardrails.Threshold)
	assert.Equal(t, []string{"EMAIL_ADDRESS", "US_SSN"}, cfg.Guardrails.Entities)
	require.Len(t, cfg.Guardrails.CustomPatterns, 1)
	assert.Equal(t, "EMPLOYEE_ID", cfg.Guardrails.CustomPatterns[0].Name)
	assert.Equal(t, "block", cfg.Guardrails.Action)
	assert.Equal(t, "postgres://guard:secret@db:5432/anomalies", cfg.Anomaly.DBDSN)
	assert.Equal(t, 256, cfg.Anomaly.QueueSize)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_GUARD_DSN", "mysql://guard@tcp(db:3306)/anomalies")

	path := writeConfigFile(t, `
anomaly:
  db_dsn: ${TEST_GUARD_DSN}
guardrails:
  banned_words_location: ${TEST_GUARD_BANNED:-/var/lib/banned.txt}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql://guard@tcp(db:3306)/anomalies", cfg.Anomaly.DBDSN)
	assert.Equal(t, "/var/lib/banned.txt", cfg.Guardrails.BannedWordsLoc,
		"undefined variable falls back to the :- default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("ANOMALY_DB_DSN", "postgres://override@db/anomalies")

	path := writeConfigFile(t, `
server:
  port: 9090
anomaly:
  db_dsn: postgres://file@db/anomalies
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "PORT wins over the file")
	assert.Equal(t, "postgres://override@db/anomalies", cfg.Anomaly.DBDSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/guardrails.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Guardrails.Threshold = 1.5 },
			wantErr: "threshold must be in (0, 1]",
		},
		{
			name:    "zero threshold",
			mutate:  func(c *Config) { c.Guardrails.Threshold = 0 },
			wantErr: "threshold must be in (0, 1]",
		},
		{
			name:    "unknown action",
			mutate:  func(c *Config) { c.Guardrails.Action = "redact" },
			wantErr: "action must be",
		},
		{
			name: "invalid custom pattern regex",
			mutate: func(c *Config) {
				c.Guardrails.CustomPatterns = []evaluator.CustomPattern{
					{Name: "BROKEN", Pattern: "[unclosed"},
				}
			},
			wantErr: "custom pattern 0",
		},
		{
			name:    "negative queue size",
			mutate:  func(c *Config) { c.Anomaly.QueueSize = -1 },
			wantErr: "queue size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
