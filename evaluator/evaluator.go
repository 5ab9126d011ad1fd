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

// Package evaluator defines the contract shared by all content-safety
// checks and provides the built-in implementations: PII detection and
// masking, toxicity scoring, prompt-injection classification, and
// banned/competitor word moderation. Evaluators are built once at
// process start and treated as stateless capabilities afterwards.
package evaluator

import (
	"context"
	"fmt"
	"regexp"
)

// Kind identifies one evaluator variant
type Kind string

const (
	KindPII             Kind = "pii"
	KindToxicity        Kind = "toxicity"
	KindPromptInjection Kind = "prompt_injection"
	KindBannedWords     Kind = "banned_words"
)

// CanonicalOrder is the fixed iteration order used wherever evaluator
// kinds must be walked deterministically (response assembly, trigger
// labels).
var CanonicalOrder = []Kind{KindPII, KindToxicity, KindPromptInjection, KindBannedWords}

// ParseKind converts a wire string into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPII, KindToxicity, KindPromptInjection, KindBannedWords:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown evaluator kind: %q", s)
}

// Action controls what the banned-words evaluator does with matches
type Action string

const (
	ActionMask  Action = "mask"
	ActionBlock Action = "block"
)

// CustomPattern is a validated user-supplied PII recognizer definition
type CustomPattern struct {
	Name    string  `json:"entity_name" yaml:"entity_name"`
	Pattern string  `json:"regex" yaml:"regex"`
	Score   float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// Validate checks a custom pattern for well-formedness. The pattern must
// compile and the score, when present, must fall in (0, 1].
func (p CustomPattern) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("custom pattern: entity_name is required")
	}
	if p.Pattern == "" {
		return fmt.Errorf("custom pattern %q: regex is required", p.Name)
	}
	if _, err := regexp.Compile(p.Pattern); err != nil {
		return fmt.Errorf("custom pattern %q: invalid regex: %w", p.Name, err)
	}
	if p.Score < 0 || p.Score > 1 {
		return fmt.Errorf("custom pattern %q: score must be in (0, 1], got %v", p.Name, p.Score)
	}
	return nil
}

// Request carries one piece of untrusted text plus the per-check
// configuration. It is built once per incoming request and never
// mutated.
type Request struct {
	Content            string          `json:"content"`
	Entities           []string        `json:"entities,omitempty"`
	CustomPatterns     []CustomPattern `json:"custom_entities,omitempty"`
	Threshold          float64         `json:"threshold,omitempty"`
	BannedWordsLoc     string          `json:"banned_words_loc,omitempty"`
	CompetitorWordsLoc string          `json:"competitor_words_loc,omitempty"`
	Action             Action          `json:"action,omitempty"`
}

// Result is one evaluator's verdict. Triggered reports whether the
// verdict warrants recording an anomaly; it is derivable from the
// payload alone, so callers never need to inspect evaluator internals.
type Result interface {
	ResultKind() Kind
	Triggered() bool
}

// Evaluator is a single content-safety check. Implementations must be
// safe for concurrent use.
type Evaluator interface {
	Kind() Kind
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// PIIResult reports whether PII was found and the masked text
type PIIResult struct {
	Found      bool   `json:"pii_found"`
	MaskedText string `json:"masked_text"`
}

func (r *PIIResult) ResultKind() Kind { return KindPII }
func (r *PIIResult) Triggered() bool  { return r.Found }

// ToxicityResult holds per-label scores and the labels above threshold
type ToxicityResult struct {
	Toxic   bool               `json:"is_toxic"`
	Flagged map[string]float64 `json:"flagged_labels"`
	Scores  map[string]float64 `json:"all_scores"`
}

func (r *ToxicityResult) ResultKind() Kind { return KindToxicity }
func (r *ToxicityResult) Triggered() bool  { return r.Toxic }

// InjectionResult is the prompt-injection classifier output. The
// probabilities slice is ordered [safe, injection].
type InjectionResult struct {
	Flagged       bool      `json:"is_prompt_injection"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
}

func (r *InjectionResult) ResultKind() Kind { return KindPromptInjection }
func (r *InjectionResult) Triggered() bool  { return r.Flagged }

// WordFilterStatus is the banned-words verdict
type WordFilterStatus string

const (
	StatusAllowed WordFilterStatus = "allowed"
	StatusBlocked WordFilterStatus = "blocked"
)

// WordFilterResult lists matched terms and the cleaned text. CleanedText
// is nil when the content was blocked.
type WordFilterResult struct {
	Status      WordFilterStatus `json:"status"`
	CleanedText *string          `json:"cleaned_text"`
	Banned      []string         `json:"banned_words"`
	Competitors []string         `json:"competitors"`
}

func (r *WordFilterResult) ResultKind() Kind { return KindBannedWords }

func (r *WordFilterResult) Triggered() bool {
	return r.Status == StatusBlocked || len(r.Banned) > 0 || len(r.Competitors) > 0
}
