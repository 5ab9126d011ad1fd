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

// Package metrics holds the Prometheus instrumentation shared across
// the guardrails service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts processed requests by outcome
	// (success, triggered, error)
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardrails_requests_total",
			Help: "Total requests processed by outcome",
		},
		[]string{"outcome"},
	)

	// RequestDuration observes per-stage latency in milliseconds
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guardrails_request_duration_ms",
			Help:    "Request duration in milliseconds by stage",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"stage"},
	)

	// EvaluatorFailures counts isolated evaluator errors by kind
	EvaluatorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardrails_evaluator_failures_total",
			Help: "Evaluator failures by evaluator kind",
		},
		[]string{"kind"},
	)

	// TriggersTotal counts fired anomaly labels
	TriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardrails_triggers_total",
			Help: "Anomaly triggers by label",
		},
		[]string{"label"},
	)

	// AnomaliesLogged counts anomaly records handed to the store
	AnomaliesLogged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "guardrails_anomalies_logged_total",
			Help: "Anomaly records written to the store",
		},
	)

	// AnomaliesDropped counts records lost to queue overflow or
	// store failures
	AnomaliesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "guardrails_anomalies_dropped_total",
			Help: "Anomaly records dropped without being persisted",
		},
	)

	// StoreWriteFailures counts failed anomaly store writes
	StoreWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "guardrails_store_write_failures_total",
			Help: "Failed anomaly store write attempts",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(EvaluatorFailures)
	prometheus.MustRegister(TriggersTotal)
	prometheus.MustRegister(AnomaliesLogged)
	prometheus.MustRegister(AnomaliesDropped)
	prometheus.MustRegister(StoreWriteFailures)
}
