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
	"github.com/tejadata/guardrails/evaluator"
)

// Triggers maps a unified response to the set of anomaly labels that
// fired. It is a pure function: each evaluator kind present in the
// response contributes its label when its verdict triggered, walking
// kinds in canonical order so the labels are order-stable and free of
// duplicates. Failed evaluators carry no verdict and never trigger.
//
// Label conditions per kind:
//
//	pii              pii_found == true
//	toxicity         is_toxic == true
//	prompt_injection is_prompt_injection == true
//	banned_words     status == blocked, or any matched set non-empty
func Triggers(resp *UnifiedResponse) []string {
	if resp == nil {
		return nil
	}

	var labels []string
	for _, kind := range evaluator.CanonicalOrder {
		result, ok := resp.Results[kind]
		if ok && result.Triggered() {
			labels = append(labels, string(kind))
		}
	}
	return labels
}
