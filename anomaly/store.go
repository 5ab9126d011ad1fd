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

// Package anomaly persists and aggregates triggered-anomaly records.
// The logger is strictly fire-and-forget: writes happen on a background
// worker, failures are recorded through diagnostics and dropped, and
// the request path is never blocked or failed by observability.
package anomaly

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Record is one persisted anomaly. Labels is non-empty and ordered;
// Details is an opaque serialized blob the store never interprets.
// Records are immutable once written and never updated or deleted.
type Record struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Labels    []string  `json:"anomaly_labels"`
	Details   string    `json:"details"`
}

// Store is the durable append-only anomaly log. Append assigns the
// record's ID and, when unset, its timestamp. QueryAll returns records
// at or after since; a zero since returns everything. Implementations
// must be safe for concurrent use; no ordering is guaranteed across
// concurrent appends beyond each record's own timestamp.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	QueryAll(ctx context.Context, since time.Time) ([]Record, error)
}

// JoinLabels serializes a label list to the stored comma-joined form
func JoinLabels(labels []string) string {
	return strings.Join(labels, ",")
}

// SplitLabels parses the stored comma-joined form, trimming whitespace
// and dropping empty entries
func SplitLabels(joined string) []string {
	var labels []string
	for _, raw := range strings.Split(joined, ",") {
		label := strings.TrimSpace(raw)
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// MemoryStore is an in-process Store used when no database is
// configured, and by tests
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	nextID  int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append stores a copy of the record, assigning its ID and timestamp
func (s *MemoryStore) Append(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	s.records = append(s.records, *rec)
	return nil
}

// QueryAll returns records at or after since in insertion order
func (s *MemoryStore) QueryAll(ctx context.Context, since time.Time) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if !since.IsZero() && rec.Timestamp.Before(since) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Len reports the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
