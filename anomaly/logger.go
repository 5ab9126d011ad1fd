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
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejadata/guardrails/metrics"
	"github.com/tejadata/guardrails/shared/logger"
)

const defaultQueueSize = 1024

// Logger records triggered anomalies without ever blocking the request
// path. Log hands a record to a bounded queue and returns immediately;
// a background worker performs the store write. There is exactly one
// write attempt per record: queue overflow and store failures drop the
// record after counting it.
type Logger struct {
	store Store
	queue chan *Record
	log   *logger.Logger

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewLogger creates an anomaly logger over the given store and starts
// its background worker. queueSize <= 0 selects the default.
func NewLogger(store Store, queueSize int) *Logger {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	l := &Logger{
		store:    store,
		queue:    make(chan *Record, queueSize),
		log:      logger.New("anomaly-logger"),
		shutdown: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.processQueue()

	return l
}

// Log serializes the details and enqueues one anomaly record. It
// returns before any store IO happens. Empty label sets are ignored;
// a full queue drops the record rather than blocking.
func (l *Logger) Log(labels []string, details interface{}) {
	if len(labels) == 0 {
		return
	}

	serialized, err := json.Marshal(details)
	if err != nil {
		l.log.ErrorWithErr("", "Failed to serialize anomaly details", err, nil)
		serialized = []byte(`{}`)
	}

	rec := &Record{
		RequestID: "anomaly-" + uuid.NewString(),
		Labels:    dedupeLabels(labels),
		Details:   string(serialized),
	}

	select {
	case l.queue <- rec:
	default:
		metrics.AnomaliesDropped.Inc()
		l.log.Warn(rec.RequestID, "Anomaly queue full, dropping record", map[string]interface{}{
			"labels": rec.Labels,
		})
	}
}

// processQueue drains the queue until shutdown, then flushes whatever
// is still buffered
func (l *Logger) processQueue() {
	defer l.wg.Done()

	for {
		select {
		case rec := <-l.queue:
			l.write(rec)
		case <-l.shutdown:
			for {
				select {
				case rec := <-l.queue:
					l.write(rec)
				default:
					return
				}
			}
		}
	}
}

// write performs the single store attempt for one record. Failures are
// recorded through diagnostics only; the record is lost.
func (l *Logger) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Append(ctx, rec); err != nil {
		metrics.StoreWriteFailures.Inc()
		metrics.AnomaliesDropped.Inc()
		l.log.ErrorWithErr(rec.RequestID, "Failed to store anomaly", err, map[string]interface{}{
			"labels": rec.Labels,
		})
		return
	}

	metrics.AnomaliesLogged.Inc()
	l.log.Info(rec.RequestID, "Anomaly stored", map[string]interface{}{
		"labels": rec.Labels,
	})
}

// Close stops the worker after flushing queued records. Safe to call
// more than once.
func (l *Logger) Close() {
	l.once.Do(func() {
		close(l.shutdown)
	})
	l.wg.Wait()
}

// dedupeLabels removes duplicates while preserving first-seen order
func dedupeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}
