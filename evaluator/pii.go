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
	"sort"
	"strings"
)

// Built-in PII entity labels
const (
	EntityEmail      = "EMAIL_ADDRESS"
	EntityPhone      = "PHONE_NUMBER"
	EntityCreditCard = "CREDIT_CARD"
	EntitySSN        = "US_SSN"
	EntityIPAddress  = "IP_ADDRESS"
)

// piiRecognizer is one compiled entity pattern. The optional validator
// confirms a raw regex match and refines its confidence.
type piiRecognizer struct {
	entity    string
	pattern   *regexp.Regexp
	score     float64
	validator func(match string) (bool, float64)
}

// PIIAnalyzer detects and masks PII entities in text. Recognizers for
// the built-in entities are compiled once at construction; custom
// patterns arrive per request and are compiled on demand.
type PIIAnalyzer struct {
	recognizers map[string]piiRecognizer
}

// piiMatch is one detected span before masking
type piiMatch struct {
	entity     string
	start, end int
	score      float64
}

// NewPIIAnalyzer creates the PII evaluator with all built-in recognizers
func NewPIIAnalyzer() *PIIAnalyzer {
	a := &PIIAnalyzer{recognizers: make(map[string]piiRecognizer)}

	builtin := []piiRecognizer{
		{
			entity:    EntityEmail,
			pattern:   regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`),
			score:     0.9,
			validator: validateEmail,
		},
		{
			entity:  EntityPhone,
			pattern: regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`),
			score:   0.7,
		},
		{
			entity:    EntityCreditCard,
			pattern:   regexp.MustCompile(`\b(?:\d[ \-]?){13,19}\b`),
			score:     0.8,
			validator: validateCreditCard,
		},
		{
			entity:    EntitySSN,
			pattern:   regexp.MustCompile(`\b(\d{3})[\- ]?(\d{2})[\- ]?(\d{4})\b`),
			score:     0.85,
			validator: validateSSN,
		},
		{
			entity:    EntityIPAddress,
			pattern:   regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			score:     0.6,
			validator: validateIPAddress,
		},
	}
	for _, r := range builtin {
		a.recognizers[r.entity] = r
	}

	return a
}

func (a *PIIAnalyzer) Kind() Kind { return KindPII }

// Evaluate analyzes the text for the requested entity labels plus any
// custom patterns, filters matches below the confidence threshold, and
// returns the masked text. Each masked span is replaced with its entity
// label in angle brackets.
func (a *PIIAnalyzer) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}

	recognizers, err := a.selectRecognizers(req)
	if err != nil {
		return nil, err
	}

	var matches []piiMatch
	for _, rec := range recognizers {
		for _, loc := range rec.pattern.FindAllStringIndex(req.Content, -1) {
			match := req.Content[loc[0]:loc[1]]
			score := rec.score
			if rec.validator != nil {
				valid, confidence := rec.validator(match)
				if !valid {
					continue
				}
				score = confidence
			}
			if score < threshold {
				continue
			}
			matches = append(matches, piiMatch{
				entity: rec.entity,
				start:  loc[0],
				end:    loc[1],
				score:  score,
			})
		}
	}

	return &PIIResult{
		Found:      len(matches) > 0,
		MaskedText: maskMatches(req.Content, matches),
	}, nil
}

// selectRecognizers resolves the requested entity labels and compiles
// any custom patterns. Unknown built-in labels are skipped; invalid
// custom patterns fail the evaluation.
func (a *PIIAnalyzer) selectRecognizers(req Request) ([]piiRecognizer, error) {
	var selected []piiRecognizer

	entities := req.Entities
	if len(entities) == 0 && len(req.CustomPatterns) == 0 {
		// No selection means all built-in entities
		for _, rec := range a.recognizers {
			selected = append(selected, rec)
		}
	} else {
		for _, entity := range entities {
			if rec, ok := a.recognizers[entity]; ok {
				selected = append(selected, rec)
			}
		}
	}

	for _, cp := range req.CustomPatterns {
		if err := cp.Validate(); err != nil {
			return nil, fmt.Errorf("pii: %w", err)
		}
		compiled, err := regexp.Compile(cp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pii: custom pattern %q: %w", cp.Name, err)
		}
		score := cp.Score
		if score == 0 {
			score = 0.85
		}
		selected = append(selected, piiRecognizer{
			entity:  cp.Name,
			pattern: compiled,
			score:   score,
		})
	}

	// Stable order keeps masking deterministic when spans from
	// different recognizers overlap
	sort.Slice(selected, func(i, j int) bool { return selected[i].entity < selected[j].entity })

	return selected, nil
}

// maskMatches replaces every detected span with its entity label.
// Overlapping spans are merged, keeping the earlier-starting (then
// longer) one.
func maskMatches(text string, matches []piiMatch) string {
	if len(matches) == 0 {
		return text
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m.start < last {
			continue // overlapped by a previous span
		}
		b.WriteString(text[last:m.start])
		b.WriteString("<" + m.entity + ">")
		last = m.end
	}
	b.WriteString(text[last:])

	return b.String()
}

func validateEmail(match string) (bool, float64) {
	at := strings.Index(match, "@")
	if at <= 0 || at == len(match)-1 {
		return false, 0
	}
	domain := match[at+1:]
	if !strings.Contains(domain, ".") {
		return false, 0
	}
	// Obvious placeholder addresses score lower
	local := strings.ToLower(match[:at])
	if local == "example" || local == "test" || local == "user" {
		return true, 0.5
	}
	return true, 0.9
}

// validateCreditCard runs a Luhn check over the digits
func validateCreditCard(match string) (bool, float64) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, match)

	if len(digits) < 13 || len(digits) > 19 {
		return false, 0
	}
	if !luhnCheck(digits) {
		return false, 0
	}
	return true, 0.95
}

func luhnCheck(number string) bool {
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if alternate {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		alternate = !alternate
	}
	return sum%10 == 0
}

// validateSSN rejects well-known invalid area/group/serial values
func validateSSN(match string) (bool, float64) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, match)
	if len(digits) != 9 {
		return false, 0
	}

	area, group, serial := digits[0:3], digits[3:5], digits[5:9]
	if area == "000" || area == "666" || area >= "900" {
		return false, 0
	}
	if group == "00" || serial == "0000" {
		return false, 0
	}
	if isRepeatedDigits(digits) {
		return false, 0
	}

	// A formatted SSN (with separators) is a stronger signal than nine
	// bare digits
	if strings.ContainsAny(match, "- ") {
		return true, 0.85
	}
	return true, 0.6
}

func validateIPAddress(match string) (bool, float64) {
	parts := strings.Split(match, ".")
	if len(parts) != 4 {
		return false, 0
	}
	for _, p := range parts {
		if len(p) > 1 && p[0] == '0' {
			return false, 0
		}
		n := 0
		for _, c := range p {
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false, 0
		}
	}
	return true, 0.6
}

func isRepeatedDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
