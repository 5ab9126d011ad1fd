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

// Package orchestrator runs a selected set of evaluators concurrently
// over one piece of content and merges their verdicts into a single
// deterministic response. Evaluator failures are isolated: one failing
// check never discards the others' results.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tejadata/guardrails/evaluator"
	"github.com/tejadata/guardrails/metrics"
)

// UnifiedResponse maps each evaluator kind that ran to its verdict.
// Kinds whose evaluator failed appear in Failed instead of Results and
// never contribute to trigger evaluation. Assembly is keyed by kind, so
// the response is identical regardless of completion order.
type UnifiedResponse struct {
	Results map[evaluator.Kind]evaluator.Result `json:"results"`
	Failed  map[evaluator.Kind]string           `json:"failed,omitempty"`
}

// Orchestrator fans one request out to its evaluators and joins on all
// of them. Evaluator handles are injected once at construction and
// never mutated.
type Orchestrator struct {
	evaluators map[evaluator.Kind]evaluator.Evaluator
}

// New creates an orchestrator over the given evaluator set
func New(evals ...evaluator.Evaluator) *Orchestrator {
	m := make(map[evaluator.Kind]evaluator.Evaluator, len(evals))
	for _, e := range evals {
		m[e.Kind()] = e
	}
	return &Orchestrator{evaluators: m}
}

// Kinds returns the registered evaluator kinds in canonical order
func (o *Orchestrator) Kinds() []evaluator.Kind {
	var kinds []evaluator.Kind
	for _, k := range evaluator.CanonicalOrder {
		if _, ok := o.evaluators[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Run executes the selected evaluators concurrently and waits for every
// one to finish before assembling the response. An empty kinds slice
// selects all registered evaluators. Run fails outright only when a
// requested kind has no registered evaluator; per-evaluator errors are
// captured in the response instead.
func (o *Orchestrator) Run(ctx context.Context, req evaluator.Request, kinds []evaluator.Kind) (*UnifiedResponse, error) {
	if len(kinds) == 0 {
		kinds = o.Kinds()
	}

	selected := make([]evaluator.Evaluator, len(kinds))
	for i, k := range kinds {
		ev, ok := o.evaluators[k]
		if !ok {
			return nil, fmt.Errorf("no evaluator registered for kind %q", k)
		}
		selected[i] = ev
	}

	startTime := time.Now()

	// One result/error slot per evaluator, written only by its own
	// goroutine. A failure fills the error slot and leaves the rest of
	// the batch untouched.
	results := make([]evaluator.Result, len(selected))
	errs := make([]error, len(selected))

	var wg sync.WaitGroup
	for i, ev := range selected {
		wg.Add(1)
		go func(idx int, ev evaluator.Evaluator) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[idx] = fmt.Errorf("evaluator panicked: %v", r)
				}
			}()

			res, err := ev.Evaluate(ctx, req)
			results[idx] = res
			errs[idx] = err
		}(i, ev)
	}

	// Full barrier: no partial responses leave this function early
	wg.Wait()

	resp := &UnifiedResponse{
		Results: make(map[evaluator.Kind]evaluator.Result, len(selected)),
	}
	for i, ev := range selected {
		if errs[i] != nil {
			log.Printf("[Orchestrator] Evaluator %s failed: %v", ev.Kind(), errs[i])
			metrics.EvaluatorFailures.WithLabelValues(string(ev.Kind())).Inc()
			if resp.Failed == nil {
				resp.Failed = make(map[evaluator.Kind]string)
			}
			resp.Failed[ev.Kind()] = errs[i].Error()
			continue
		}
		resp.Results[ev.Kind()] = results[i]
	}

	metrics.RequestDuration.WithLabelValues("evaluation").Observe(float64(time.Since(startTime).Milliseconds()))

	return resp, nil
}
