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

package server

import (
	"flag"
	"log"
	"os"

	"github.com/tejadata/guardrails/anomaly"
	"github.com/tejadata/guardrails/config"
	"github.com/tejadata/guardrails/evaluator"
	"github.com/tejadata/guardrails/orchestrator"
	"github.com/tejadata/guardrails/wordlist"
)

// Run wires the full service from configuration and blocks serving
// HTTP until the process exits.
func Run() {
	configPath := flag.String("config", os.Getenv("GUARDRAILS_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Guardrails] Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("[Guardrails] Failed to open anomaly store: %v", err)
	}

	anomalies := anomaly.NewLogger(store, cfg.Anomaly.QueueSize)
	defer anomalies.Close()

	words := wordlist.NewLoader()
	orch := orchestrator.New(
		evaluator.NewPIIAnalyzer(),
		evaluator.NewToxicityScorer(),
		evaluator.NewInjectionClassifier(),
		evaluator.NewWordFilter(words.Load, cfg.Guardrails.BannedWordsLoc, cfg.Guardrails.CompetitorWordsLoc),
	)

	srv := New(orch, anomalies, anomaly.NewReporter(store), cfg)
	log.Fatal(srv.ListenAndServe())
}

// openStore picks the anomaly backend: SQL when a DSN is configured,
// in-memory otherwise.
func openStore(cfg *config.Config) (anomaly.Store, error) {
	if cfg.Anomaly.DBDSN == "" {
		log.Println("[Guardrails] No anomaly DB configured, keeping anomalies in memory")
		return anomaly.NewMemoryStore(), nil
	}
	return anomaly.OpenSQLStore(cfg.Anomaly.DBDSN)
}
