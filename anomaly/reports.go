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

package anomaly

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Report grouping modes
const (
	GroupByDay  = "day"
	GroupByType = "anomaly_type"
)

// ErrInvalidGroupBy is returned for unrecognized grouping modes
var ErrInvalidGroupBy = errors.New("group_by must be \"day\" or \"anomaly_type\"")

// Reporter aggregates stored anomaly records into count buckets. Every
// aggregation scans the store fresh; nothing is cached, so a report is
// deterministic for a fixed snapshot and merely eventually consistent
// with concurrent appends.
type Reporter struct {
	store Store
}

// NewReporter creates a report aggregator over the given store
func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// Aggregate dispatches on the grouping mode. The day report is
// map[label]map[YYYY-MM-DD]count, the type report map[label]count.
func (r *Reporter) Aggregate(ctx context.Context, groupBy string) (interface{}, error) {
	switch groupBy {
	case GroupByDay:
		return r.ByDay(ctx)
	case GroupByType:
		return r.ByType(ctx)
	default:
		return nil, fmt.Errorf("%w (got %q)", ErrInvalidGroupBy, groupBy)
	}
}

// ByDay counts anomalies per label per calendar day (UTC). A record
// carrying several labels increments each label's bucket for its day.
func (r *Reporter) ByDay(ctx context.Context) (map[string]map[string]int, error) {
	records, err := r.store.QueryAll(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	report := make(map[string]map[string]int)
	for _, rec := range records {
		day := rec.Timestamp.UTC().Format("2006-01-02")
		for _, label := range rec.Labels {
			if report[label] == nil {
				report[label] = make(map[string]int)
			}
			report[label][day]++
		}
	}

	return report, nil
}

// ByType counts anomalies per label across all time
func (r *Reporter) ByType(ctx context.Context) (map[string]int, error) {
	records, err := r.store.QueryAll(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	counter := make(map[string]int)
	for _, rec := range records {
		for _, label := range rec.Labels {
			counter[label]++
		}
	}

	return counter, nil
}
