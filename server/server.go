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

// Package server exposes the guardrails HTTP API.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/tejadata/guardrails/anomaly"
	"github.com/tejadata/guardrails/config"
	"github.com/tejadata/guardrails/evaluator"
	"github.com/tejadata/guardrails/orchestrator"
	"github.com/tejadata/guardrails/shared/logger"
)

const serviceVersion = "1.0.0"

// Server wires the orchestrator, anomaly pipeline, and reporting
// behind the HTTP API.
type Server struct {
	orch      *orchestrator.Orchestrator
	anomalies *anomaly.Logger
	reporter  *anomaly.Reporter
	cfg       *config.Config
	log       *logger.Logger
}

// New builds a Server. The anomaly logger may be nil when anomaly
// logging is disabled; triggered labels are still returned to callers.
func New(orch *orchestrator.Orchestrator, anomalies *anomaly.Logger, reporter *anomaly.Reporter, cfg *config.Config) *Server {
	return &Server{
		orch:      orch,
		anomalies: anomalies,
		reporter:  reporter,
		cfg:       cfg,
		log:       logger.New("server"),
	}
}

// Router returns the configured HTTP handler with CORS applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/api/v1/guardrails", s.handleListGuardrails).Methods("GET")
	r.HandleFunc("/api/v1/toxicity", s.handleSingle(evaluator.KindToxicity)).Methods("POST")
	r.HandleFunc("/api/v1/mask_pii", s.handleSingle(evaluator.KindPII)).Methods("POST")
	r.HandleFunc("/api/v1/prompt_injection", s.handleSingle(evaluator.KindPromptInjection)).Methods("POST")
	r.HandleFunc("/api/v1/moderate", s.handleSingle(evaluator.KindBannedWords)).Methods("POST")
	r.HandleFunc("/api/v1/run_all_guardrails", s.handleRunAll).Methods("POST")
	r.HandleFunc("/api/v1/reports", s.handleReports).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.Server.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.Server.AllowedOrigins
}

// ListenAndServe blocks serving the API on the configured port.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.log.Info("", "Guardrails service listening", map[string]interface{}{
		"addr": addr,
	})
	return http.ListenAndServe(addr, s.Router())
}
