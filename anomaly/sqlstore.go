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
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// SQLStore backs the anomaly log with a relational anomalies table.
// Postgres and MySQL are supported; the driver is selected from the
// DSN.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQLStore connects to the database named by the DSN and creates
// the anomalies table if it does not exist. DSNs starting with
// mysql:// (or containing a go-sql-driver @tcp( address) select MySQL;
// everything else is treated as Postgres.
func OpenSQLStore(dsn string) (*SQLStore, error) {
	driver := "postgres"
	if strings.HasPrefix(dsn, "mysql://") {
		driver = "mysql"
		dsn = strings.TrimPrefix(dsn, "mysql://")
	} else if strings.Contains(dsn, "@tcp(") {
		driver = "mysql"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening anomaly database: %w", err)
	}

	store := &SQLStore{db: db, driver: driver}
	if err := store.createTable(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating anomalies table: %w", err)
	}

	return store, nil
}

// NewSQLStoreWithDB wraps an existing database handle (used by tests)
func NewSQLStoreWithDB(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) createTable() error {
	var query string
	if s.driver == "mysql" {
		query = `
		CREATE TABLE IF NOT EXISTS anomalies (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			request_id VARCHAR(128) NOT NULL,
			anomaly_type VARCHAR(64) NOT NULL,
			details TEXT
		)`
	} else {
		query = `
		CREATE TABLE IF NOT EXISTS anomalies (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			request_id VARCHAR(128) NOT NULL,
			anomaly_type VARCHAR(64) NOT NULL,
			details TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_anomalies_timestamp ON anomalies(timestamp)`
	}

	_, err := s.db.Exec(query)
	return err
}

// Append inserts one anomaly record, assigning its timestamp when
// unset. Each write is an independent unit; there is no batching and no
// cross-write ordering.
func (s *SQLStore) Append(ctx context.Context, rec *Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	var query string
	if s.driver == "mysql" {
		query = `INSERT INTO anomalies (timestamp, request_id, anomaly_type, details) VALUES (?, ?, ?, ?)`
	} else {
		query = `INSERT INTO anomalies (timestamp, request_id, anomaly_type, details) VALUES ($1, $2, $3, $4)`
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.Timestamp,
		rec.RequestID,
		JoinLabels(rec.Labels),
		rec.Details,
	)
	if err != nil {
		return fmt.Errorf("inserting anomaly %s: %w", rec.RequestID, err)
	}
	return nil
}

// QueryAll streams every stored record at or after since. Rows that
// fail to scan are skipped rather than aborting the whole read.
func (s *SQLStore) QueryAll(ctx context.Context, since time.Time) ([]Record, error) {
	query := `SELECT id, timestamp, request_id, anomaly_type, details FROM anomalies`
	args := []interface{}{}
	if !since.IsZero() {
		if s.driver == "mysql" {
			query += ` WHERE timestamp >= ?`
		} else {
			query += ` WHERE timestamp >= $1`
		}
		args = append(args, since)
	}
	query += ` ORDER BY timestamp`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		var joined string
		var details sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.RequestID, &joined, &details); err != nil {
			continue
		}

		rec.Labels = SplitLabels(joined)
		rec.Details = details.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Ping checks database connectivity with a short timeout
func (s *SQLStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close releases the underlying database handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}
