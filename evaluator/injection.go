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

package evaluator

import (
	"context"
	"regexp"
)

// injectionRule is one detection pattern with its confidence when fired
type injectionRule struct {
	name       string
	pattern    *regexp.Regexp
	confidence float64
}

// InjectionClassifier detects prompt-injection attempts with pattern
// rules. The classifier confidence is the highest-confidence rule that
// fired; the probabilities slice is ordered [safe, injection].
type InjectionClassifier struct {
	rules []injectionRule
}

// NewInjectionClassifier creates the classifier with built-in rules
func NewInjectionClassifier() *InjectionClassifier {
	return &InjectionClassifier{
		rules: []injectionRule{
			{
				name:       "instruction_override",
				pattern:    regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\b.{0,30}\b(previous|prior|above|all)\b.{0,30}\b(instructions?|prompts?|rules?|everything)\b`),
				confidence: 0.94,
			},
			{
				name:       "prompt_exfiltration",
				pattern:    regexp.MustCompile(`(?i)\b(reveal|show|tell|print|repeat)\b.{0,40}\b(system\s+prompt|initial\s+instructions?|original\s+(system\s+)?instructions?)\b`),
				confidence: 0.9,
			},
			{
				name:       "persona_override",
				pattern:    regexp.MustCompile(`(?i)\b(pretend|act\s+as\s+if|act\s+as|imagine)\b.{0,40}\b(you\s+are|you're)\b.{0,40}\b(dan|uncensored|unrestricted|unfiltered|jailbroken|human)\b`),
				confidence: 0.88,
			},
			{
				name:       "role_reassignment",
				pattern:    regexp.MustCompile(`(?i)\byou\s+are\s+(no\s+longer|now)\b.{0,50}\b(an?\s+)?(ai|assistant|chatbot|model)\b`),
				confidence: 0.84,
			},
			{
				name:       "mode_switch",
				pattern:    regexp.MustCompile(`(?i)\bfrom\s+now\s+on\b.{0,40}\b(act|behave|respond|answer)\b`),
				confidence: 0.76,
			},
			{
				name:       "guard_bypass",
				pattern:    regexp.MustCompile(`(?i)\b(bypass|disable|turn\s+off|remove)\b.{0,30}\b(safety|filters?|guardrails?|restrictions?|censorship)\b`),
				confidence: 0.92,
			},
			{
				name:       "developer_mode",
				pattern:    regexp.MustCompile(`(?i)\b(developer|god|sudo|admin)\s+mode\b`),
				confidence: 0.8,
			},
		},
	}
}

func (c *InjectionClassifier) Kind() Kind { return KindPromptInjection }

// Evaluate classifies the content. A prompt is flagged when any rule
// fires with confidence at or above 0.5.
func (c *InjectionClassifier) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	confidence := 0.0
	for _, rule := range c.rules {
		if rule.pattern.MatchString(req.Content) && rule.confidence > confidence {
			confidence = rule.confidence
		}
	}

	return &InjectionResult{
		Flagged:       confidence >= 0.5,
		Confidence:    confidence,
		Probabilities: []float64{1 - confidence, confidence},
	}, nil
}

// MatchedRules reports which rules fire on the text, for diagnostics
func (c *InjectionClassifier) MatchedRules(text string) []string {
	var names []string
	for _, rule := range c.rules {
		if rule.pattern.MatchString(text) {
			names = append(names, rule.name)
		}
	}
	return names
}
