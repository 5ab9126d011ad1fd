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

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejadata/guardrails/evaluator"
)

// fakeEvaluator returns a canned result or error after an optional delay
type fakeEvaluator struct {
	kind   evaluator.Kind
	result evaluator.Result
	err    error
	delay  time.Duration
	calls  int
}

func (f *fakeEvaluator) Kind() evaluator.Kind { return f.kind }

func (f *fakeEvaluator) Evaluate(ctx context.Context, req evaluator.Request) (evaluator.Result, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func cleanFakes() []*fakeEvaluator {
	masked := "all clear"
	return []*fakeEvaluator{
		{kind: evaluator.KindPII, result: &evaluator.PIIResult{Found: false, MaskedText: "all clear"}},
		{kind: evaluator.KindToxicity, result: &evaluator.ToxicityResult{Scores: map[string]float64{"toxicity": 0}}},
		{kind: evaluator.KindPromptInjection, result: &evaluator.InjectionResult{Probabilities: []float64{1, 0}}},
		{kind: evaluator.KindBannedWords, result: &evaluator.WordFilterResult{Status: evaluator.StatusAllowed, CleanedText: &masked}},
	}
}

func orchestratorOf(fakes []*fakeEvaluator) *Orchestrator {
	evals := make([]evaluator.Evaluator, len(fakes))
	for i, f := range fakes {
		evals[i] = f
	}
	return New(evals...)
}

func TestRun_AllEvaluatorsPresent(t *testing.T) {
	fakes := cleanFakes()
	o := orchestratorOf(fakes)

	resp, err := o.Run(context.Background(), evaluator.Request{Content: "hello"}, nil)
	require.NoError(t, err)

	assert.Len(t, resp.Results, 4)
	assert.Empty(t, resp.Failed)
	for _, f := range fakes {
		assert.Equal(t, 1, f.calls, "evaluator %s", f.kind)
		assert.Contains(t, resp.Results, f.kind)
	}
}

// TestRun_OrderIndependence randomizes per-evaluator delay and asserts
// the serialized response never changes
func TestRun_OrderIndependence(t *testing.T) {
	var baseline []byte

	for run := 0; run < 5; run++ {
		fakes := cleanFakes()
		for _, f := range fakes {
			f.delay = time.Duration(rand.Intn(30)) * time.Millisecond
		}
		o := orchestratorOf(fakes)

		resp, err := o.Run(context.Background(), evaluator.Request{Content: "same input"}, nil)
		require.NoError(t, err)

		serialized, err := json.Marshal(resp)
		require.NoError(t, err)

		if baseline == nil {
			baseline = serialized
			continue
		}
		assert.JSONEq(t, string(baseline), string(serialized), "run %d diverged", run)
	}
}

// TestRun_FailureIsolation verifies one failing evaluator does not
// discard the other results
func TestRun_FailureIsolation(t *testing.T) {
	fakes := cleanFakes()
	fakes[1].result = nil
	fakes[1].err = errors.New("model unavailable")

	o := orchestratorOf(fakes)

	resp, err := o.Run(context.Background(), evaluator.Request{Content: "hello"}, nil)
	require.NoError(t, err)

	assert.Len(t, resp.Results, 3)
	assert.NotContains(t, resp.Results, evaluator.KindToxicity)
	require.Contains(t, resp.Failed, evaluator.KindToxicity)
	assert.Equal(t, "model unavailable", resp.Failed[evaluator.KindToxicity])

	// The surviving three are all present
	assert.Contains(t, resp.Results, evaluator.KindPII)
	assert.Contains(t, resp.Results, evaluator.KindPromptInjection)
	assert.Contains(t, resp.Results, evaluator.KindBannedWords)
}

func TestRun_SubsetSelection(t *testing.T) {
	fakes := cleanFakes()
	o := orchestratorOf(fakes)

	resp, err := o.Run(context.Background(), evaluator.Request{Content: "hi"},
		[]evaluator.Kind{evaluator.KindToxicity})
	require.NoError(t, err)

	assert.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results, evaluator.KindToxicity)
	assert.Equal(t, 0, fakes[0].calls, "pii should not run")
	assert.Equal(t, 1, fakes[1].calls)
}

func TestRun_UnknownKind(t *testing.T) {
	o := orchestratorOf(cleanFakes())

	_, err := o.Run(context.Background(), evaluator.Request{}, []evaluator.Kind{"sentiment"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no evaluator registered")
}

// TestRun_PanicIsolation verifies a panicking evaluator is captured as
// a failure
func TestRun_PanicIsolation(t *testing.T) {
	fakes := cleanFakes()
	o := New(
		&panickyEvaluator{},
		fakes[0],
	)

	resp, err := o.Run(context.Background(), evaluator.Request{Content: "x"}, nil)
	require.NoError(t, err)

	require.Contains(t, resp.Failed, evaluator.KindToxicity)
	assert.Contains(t, resp.Failed[evaluator.KindToxicity], "panicked")
	assert.Contains(t, resp.Results, evaluator.KindPII)
}

type panickyEvaluator struct{}

func (p *panickyEvaluator) Kind() evaluator.Kind { return evaluator.KindToxicity }

func (p *panickyEvaluator) Evaluate(ctx context.Context, req evaluator.Request) (evaluator.Result, error) {
	panic("boom")
}

func TestKinds_CanonicalOrder(t *testing.T) {
	o := orchestratorOf(cleanFakes())

	assert.Equal(t, []evaluator.Kind{
		evaluator.KindPII,
		evaluator.KindToxicity,
		evaluator.KindPromptInjection,
		evaluator.KindBannedWords,
	}, o.Kinds())
}
