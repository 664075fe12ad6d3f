// Copyright 2025 The sorodbg Authors
//
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

// Package history provides SQLite-backed storage for invocation records,
// so past replay results stay queryable across sessions.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Store provides SQLite-backed storage for invocation history.
type Store struct {
	db *sql.DB
}

// Record is one persisted invocation outcome.
type Record struct {
	ID         string
	SessionID  string
	CreatedAt  time.Time
	ContractID string
	Fn         string
	Status     string
	Result     string
	Error      string
	Diff       []ledger.DiffEntry
	Events     []engine.EventRecord
	DurationMS int64
}

// Open opens (or creates) the history database at path. The special
// value ":memory:" creates an in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// SQLite connection string with WAL mode for better concurrency.
	connStr := path
	if path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// migrate creates the database schema.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS invocations (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL,
			created_at  TIMESTAMP NOT NULL,
			contract_id TEXT NOT NULL,
			fn          TEXT NOT NULL,
			status      TEXT NOT NULL,
			result      TEXT,
			error       TEXT,
			diff_json   TEXT,
			events_json TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_invocations_session
			ON invocations(session_id, created_at);
	`)
	return err
}

// Append persists one invocation record.
func (s *Store) Append(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	diffJSON, err := json.Marshal(rec.Diff)
	if err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}
	eventsJSON, err := json.Marshal(rec.Events)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invocations
			(id, session_id, created_at, contract_id, fn, status, result, error, diff_json, events_json, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SessionID, rec.CreatedAt, rec.ContractID, rec.Fn, rec.Status,
		rec.Result, rec.Error, string(diffJSON), string(eventsJSON), rec.DurationMS)
	if err != nil {
		return fmt.Errorf("failed to insert invocation: %w", err)
	}
	return nil
}

// List returns the most recent invocation records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, created_at, contract_id, fn, status, result, error, diff_json, events_json, duration_ms
		FROM invocations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var diffJSON, eventsJSON string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.CreatedAt, &rec.ContractID,
			&rec.Fn, &rec.Status, &rec.Result, &rec.Error, &diffJSON, &eventsJSON, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		if diffJSON != "" {
			if err := json.Unmarshal([]byte(diffJSON), &rec.Diff); err != nil {
				return nil, fmt.Errorf("failed to decode diff for %s: %w", rec.ID, err)
			}
		}
		if eventsJSON != "" {
			if err := json.Unmarshal([]byte(eventsJSON), &rec.Events); err != nil {
				return nil, fmt.Errorf("failed to decode events for %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
