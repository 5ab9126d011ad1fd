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
	"strings"
)

// ToxicityLabels is the fixed label set scored on every evaluation
var ToxicityLabels = []string{
	"toxicity",
	"severe_toxicity",
	"obscene",
	"identity_attack",
	"insult",
	"threat",
}

// toxicTerm is one weighted lexicon entry
type toxicTerm struct {
	pattern *regexp.Regexp
	weight  float64
}

// ToxicityScorer scores text against a weighted lexicon per label. The
// per-label score is the maximum weight among matched terms; the
// umbrella "toxicity" label takes the maximum across all other labels.
type ToxicityScorer struct {
	lexicon map[string][]toxicTerm
}

// NewToxicityScorer builds the scorer with its built-in lexicon
func NewToxicityScorer() *ToxicityScorer {
	build := func(entries map[string]float64) []toxicTerm {
		terms := make([]toxicTerm, 0, len(entries))
		for word, weight := range entries {
			terms = append(terms, toxicTerm{
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`),
				weight:  weight,
			})
		}
		return terms
	}

	return &ToxicityScorer{
		lexicon: map[string][]toxicTerm{
			"insult": build(map[string]float64{
				"idiot":       0.82,
				"stupid":      0.71,
				"moron":       0.84,
				"loser":       0.66,
				"pathetic":    0.58,
				"worthless":   0.72,
				"dumb":        0.63,
				"incompetent": 0.52,
			}),
			"threat": build(map[string]float64{
				"kill you":     0.95,
				"hurt you":     0.88,
				"slap you":     0.79,
				"beat you":     0.85,
				"destroy you":  0.76,
				"make you pay": 0.61,
			}),
			"obscene": build(map[string]float64{
				"fuck":    0.93,
				"shit":    0.81,
				"asshole": 0.87,
				"bitch":   0.86,
				"bastard": 0.74,
			}),
			"identity_attack": build(map[string]float64{
				"go back to your country": 0.91,
				"your kind":               0.55,
				"subhuman":                0.93,
			}),
			"severe_toxicity": build(map[string]float64{
				"kill yourself":     0.97,
				"deserve to die":    0.95,
				"nobody would miss": 0.72,
			}),
		},
	}
}

func (s *ToxicityScorer) Kind() Kind { return KindToxicity }

// Evaluate scores the content against every label and flags those at or
// above the threshold
func (s *ToxicityScorer) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}

	scores := make(map[string]float64, len(ToxicityLabels))
	for _, label := range ToxicityLabels {
		scores[label] = 0
	}

	overall := 0.0
	for label, terms := range s.lexicon {
		best := 0.0
		for _, term := range terms {
			if term.pattern.MatchString(req.Content) && term.weight > best {
				best = term.weight
			}
		}
		scores[label] = best
		if best > overall {
			overall = best
		}
	}
	scores["toxicity"] = overall

	flagged := make(map[string]float64)
	for label, score := range scores {
		if score >= threshold {
			flagged[label] = score
		}
	}

	return &ToxicityResult{
		Toxic:   len(flagged) > 0,
		Flagged: flagged,
		Scores:  scores,
	}, nil
}

// MatchedTerms reports which lexicon entries for a label match the text.
// Used by tests and diagnostics.
func (s *ToxicityScorer) MatchedTerms(label, text string) []string {
	var matched []string
	for _, term := range s.lexicon[label] {
		if m := term.pattern.FindString(text); m != "" {
			matched = append(matched, strings.ToLower(m))
		}
	}
	return matched
}
