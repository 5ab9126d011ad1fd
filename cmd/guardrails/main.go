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

// Package main is the entry point for the guardrails service.
//
// The service evaluates text content against a set of safety
// guardrails (PII detection, toxicity scoring, prompt injection
// classification, word filtering), records triggered anomalies, and
// serves aggregated anomaly reports.
//
// Usage:
//
//	./guardrails -config /etc/guardrails/config.yaml
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8000)
//	GUARDRAILS_CONFIG - config file path when -config is not given
//	ANOMALY_DB_DSN - PostgreSQL or MySQL connection string (optional)
//	BANNED_WORDS_LOCATION - file, s3:// or redis:// word list (optional)
//	COMPETITOR_WORDS_LOCATION - file, s3:// or redis:// word list (optional)
package main

import (
	"github.com/tejadata/guardrails/server"
)

func main() {
	server.Run()
}
