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
	"fmt"
	"regexp"
	"strings"
)

// LoadWordsFunc fetches a word list from a location (file path, s3:// or
// redis:// URL). Injected so this package stays free of transport
// dependencies.
type LoadWordsFunc func(ctx context.Context, location string) ([]string, error)

// WordFilter matches banned and competitor terms in text. Depending on
// the requested action, matches are masked with asterisk runs of equal
// length or the whole content is blocked.
type WordFilter struct {
	load LoadWordsFunc

	// Fallback lists used when a request carries no locations
	defaultBannedLoc     string
	defaultCompetitorLoc string
}

// NewWordFilter creates the banned/competitor word evaluator
func NewWordFilter(load LoadWordsFunc, bannedLoc, competitorLoc string) *WordFilter {
	return &WordFilter{
		load:                 load,
		defaultBannedLoc:     bannedLoc,
		defaultCompetitorLoc: competitorLoc,
	}
}

func (f *WordFilter) Kind() Kind { return KindBannedWords }

// Evaluate loads both word lists, finds matches, and applies the action.
// Block is a verdict, not an error: the caller still gets a result with
// status blocked and no cleaned text.
func (f *WordFilter) Evaluate(ctx context.Context, req Request) (Result, error) {
	bannedLoc := req.BannedWordsLoc
	if bannedLoc == "" {
		bannedLoc = f.defaultBannedLoc
	}
	competitorLoc := req.CompetitorWordsLoc
	if competitorLoc == "" {
		competitorLoc = f.defaultCompetitorLoc
	}

	banned, err := f.loadList(ctx, bannedLoc)
	if err != nil {
		return nil, fmt.Errorf("banned word list: %w", err)
	}
	competitors, err := f.loadList(ctx, competitorLoc)
	if err != nil {
		return nil, fmt.Errorf("competitor word list: %w", err)
	}

	bannedPattern := compileWordPattern(banned)
	competitorPattern := compileWordPattern(competitors)

	bannedMatches := findMatches(bannedPattern, req.Content)
	competitorMatches := findMatches(competitorPattern, req.Content)

	result := &WordFilterResult{
		Status:      StatusAllowed,
		Banned:      bannedMatches,
		Competitors: competitorMatches,
	}

	if len(bannedMatches) == 0 && len(competitorMatches) == 0 {
		cleaned := req.Content
		result.CleanedText = &cleaned
		return result, nil
	}

	action := req.Action
	if action == "" {
		action = ActionMask
	}

	switch action {
	case ActionBlock:
		result.Status = StatusBlocked
		result.CleanedText = nil
	case ActionMask:
		masked := bannedPattern.ReplaceAllStringFunc(req.Content, maskWord)
		masked = competitorPattern.ReplaceAllStringFunc(masked, maskWord)
		result.CleanedText = &masked
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	return result, nil
}

func (f *WordFilter) loadList(ctx context.Context, location string) ([]string, error) {
	if location == "" {
		return nil, nil
	}
	return f.load(ctx, location)
}

// compileWordPattern builds a case-insensitive whole-word alternation.
// An empty list compiles to a pattern that matches nothing.
func compileWordPattern(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return regexp.MustCompile(`$^`)
	}
	escaped := make([]string, 0, len(words))
	for _, w := range words {
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// findMatches returns matched terms lowercased and deduplicated in
// first-seen order
func findMatches(pattern *regexp.Regexp, text string) []string {
	var matches []string
	seen := make(map[string]bool)
	for _, m := range pattern.FindAllString(text, -1) {
		term := strings.ToLower(m)
		if !seen[term] {
			seen[term] = true
			matches = append(matches, term)
		}
	}
	return matches
}

func maskWord(match string) string {
	return strings.Repeat("*", len(match))
}
