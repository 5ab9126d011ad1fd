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
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tejadata/guardrails/anomaly"
	"github.com/tejadata/guardrails/evaluator"
	"github.com/tejadata/guardrails/metrics"
	"github.com/tejadata/guardrails/orchestrator"
)

// guardrailRequest is the JSON body accepted by all evaluation
// endpoints. Fields left unset fall back to the configured defaults.
type guardrailRequest struct {
	Content            string                    `json:"content"`
	Guardrails         []string                  `json:"guardrails,omitempty"`
	Entities           []string                  `json:"entities,omitempty"`
	CustomPatterns     []evaluator.CustomPattern `json:"custom_patterns,omitempty"`
	Threshold          float64                   `json:"threshold,omitempty"`
	BannedWordsLoc     string                    `json:"banned_words_location,omitempty"`
	CompetitorWordsLoc string                    `json:"competitor_words_location,omitempty"`
	Action             string                    `json:"action,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// runAllResponse is the unified verdict returned by the
// run_all_guardrails endpoint.
type runAllResponse struct {
	RequestID     string                              `json:"request_id"`
	Results       map[evaluator.Kind]evaluator.Result `json:"results"`
	Failed        map[evaluator.Kind]string           `json:"failed,omitempty"`
	AnomalyLabels []string                            `json:"anomaly_labels"`
}

// toEvaluatorRequest folds the configured defaults into the request.
func (s *Server) toEvaluatorRequest(req guardrailRequest) evaluator.Request {
	out := evaluator.Request{
		Content:            req.Content,
		Entities:           req.Entities,
		CustomPatterns:     req.CustomPatterns,
		Threshold:          req.Threshold,
		BannedWordsLoc:     req.BannedWordsLoc,
		CompetitorWordsLoc: req.CompetitorWordsLoc,
		Action:             evaluator.Action(req.Action),
	}
	if out.Threshold == 0 {
		out.Threshold = s.cfg.Guardrails.Threshold
	}
	if len(out.Entities) == 0 {
		out.Entities = s.cfg.Guardrails.Entities
	}
	if len(out.CustomPatterns) == 0 {
		out.CustomPatterns = s.cfg.Guardrails.CustomPatterns
	}
	if out.Action == "" {
		out.Action = evaluator.Action(s.cfg.Guardrails.Action)
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"service":   "guardrails",
		"version":   serviceVersion,
		"timestamp": time.Now().UTC(),
		"components": map[string]bool{
			"orchestrator":   s.orch != nil,
			"anomaly_logger": s.anomalies != nil,
			"reporter":       s.reporter != nil,
		},
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleListGuardrails(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"guardrails": s.orch.Kinds(),
	})
}

// handleSingle builds a handler that runs exactly one evaluator and
// returns its raw result.
func (s *Server) handleSingle(kind evaluator.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := s.decodeRequest(w, r)
		if !ok {
			return
		}

		startTime := time.Now()
		resp, err := s.orch.Run(r.Context(), s.toEvaluatorRequest(req), []evaluator.Kind{kind})
		if err != nil {
			metrics.RequestsTotal.WithLabelValues("error").Inc()
			sendErrorResponse(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.RequestDuration.WithLabelValues(string(kind)).Observe(float64(time.Since(startTime).Milliseconds()))

		if msg, failed := resp.Failed[kind]; failed {
			metrics.RequestsTotal.WithLabelValues("error").Inc()
			sendErrorResponse(w, "Guardrail evaluation failed: "+msg, http.StatusInternalServerError)
			return
		}

		metrics.RequestsTotal.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, resp.Results[kind])
	}
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	kinds, err := parseKinds(req.Guardrails)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestID := "req-" + uuid.NewString()
	startTime := time.Now()

	resp, err := s.orch.Run(r.Context(), s.toEvaluatorRequest(req), kinds)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	metrics.RequestDuration.WithLabelValues("run_all").Observe(float64(time.Since(startTime).Milliseconds()))

	labels := orchestrator.Triggers(resp)
	for _, label := range labels {
		metrics.TriggersTotal.WithLabelValues(label).Inc()
	}

	if len(labels) > 0 {
		if s.anomalies != nil {
			s.anomalies.Log(labels, map[string]interface{}{
				"request_id": requestID,
				"content":    req.Content,
				"results":    resp.Results,
			})
		}
		metrics.RequestsTotal.WithLabelValues("triggered").Inc()
	} else {
		metrics.RequestsTotal.WithLabelValues("success").Inc()
	}

	writeJSON(w, http.StatusOK, runAllResponse{
		RequestID:     requestID,
		Results:       resp.Results,
		Failed:        resp.Failed,
		AnomalyLabels: labels,
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.reporter == nil {
		sendErrorResponse(w, "Anomaly reporting is not configured", http.StatusServiceUnavailable)
		return
	}

	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = anomaly.GroupByDay
	}

	report, err := s.reporter.Aggregate(r.Context(), groupBy)
	if err != nil {
		if errors.Is(err, anomaly.ErrInvalidGroupBy) {
			sendErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.ErrorWithErr("", "Report aggregation failed", err, nil)
		sendErrorResponse(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group_by": groupBy,
		"report":   report,
	})
}

// decodeRequest parses the body and enforces that content is present.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (guardrailRequest, bool) {
	var req guardrailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.Content == "" {
		sendErrorResponse(w, "Content is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// parseKinds maps requested guardrail names onto evaluator kinds.
func parseKinds(names []string) ([]evaluator.Kind, error) {
	known := make(map[evaluator.Kind]bool, len(evaluator.CanonicalOrder))
	for _, k := range evaluator.CanonicalOrder {
		known[k] = true
	}

	var kinds []evaluator.Kind
	for _, name := range names {
		kind := evaluator.Kind(name)
		if !known[kind] {
			return nil, errors.New("unknown guardrail: " + name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// Utility functions
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Success: false, Error: message}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
