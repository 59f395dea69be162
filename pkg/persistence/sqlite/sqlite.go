// Copyright 2025 UMH Systems GmbH
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

// Package sqlite provides a SQLite-backed persistence.Store. One table
// per collection, documents as JSON blobs, WAL journal mode on a single
// connection. Transient SQLITE_BUSY/SQLITE_LOCKED failures are retried
// with exponential backoff before surfacing.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/united-manufacturing-hub/docjournal/pkg/codec"
	"github.com/united-manufacturing-hub/docjournal/pkg/metrics"
	"github.com/united-manufacturing-hub/docjournal/pkg/persistence"
)

// Config configures a sqlite store. The zero value of every field except
// Path selects a default.
type Config struct {
	// Path is the database file path. ":memory:" works for tests.
	Path string

	// BusyRetries caps how often a busy/locked statement is retried
	// before the error surfaces. 0 selects defaultBusyRetries.
	BusyRetries uint64
}

const (
	defaultBusyRetries  = 5
	busyInitialInterval = 10 * time.Millisecond

	backendName = "sqlite"
)

// Store implements persistence.Store on a single SQLite connection.
// database/sql serializes access to it, which sidesteps SQLite's
// multi-connection write locking entirely; the busy retry covers
// external writers on the same file. closed is atomic so Close can
// race with in-flight operations.
type Store struct {
	db          *sql.DB
	busyRetries uint64
	closed      atomic.Bool
}

// NewStore opens or creates the database at cfg.Path.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path must not be empty")
	}

	if cfg.BusyRetries == 0 {
		cfg.BusyRetries = defaultBusyRetries
	}

	db, err := sql.Open("sqlite3", buildConnectionString(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, busyRetries: cfg.BusyRetries}, nil
}

func buildConnectionString(path string) string {
	params := "?cache=shared&mode=rwc&_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_cache_size=-64000"

	if runtime.GOOS == "darwin" {
		params += "&_fullfsync=1"
	}

	return path + params
}

func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}

	return false
}

// retry runs op, retrying busy/locked failures with exponential backoff.
// Any other failure is permanent and returns immediately.
func (s *Store) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = busyInitialInterval

	return backoff.Retry(func() error {
		err := op()
		if err == nil || isBusy(err) {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, s.busyRetries), ctx))
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if s.closed.Load() {
		return persistence.ErrClosed
	}

	if err := persistence.ValidateCollectionName(name); err != nil {
		return err
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`, name)

	return s.retry(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		return nil
	})
}

func (s *Store) DropCollection(ctx context.Context, name string) error {
	if s.closed.Load() {
		return persistence.ErrClosed
	}

	if err := persistence.ValidateCollectionName(name); err != nil {
		return err
	}

	query := `DROP TABLE IF EXISTS ` + name

	return s.retry(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}

		return nil
	})
}

func (s *Store) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	if s.closed.Load() {
		return "", persistence.ErrClosed
	}

	defer observe("insert", collection)()

	if err := persistence.ValidateCollectionName(collection); err != nil {
		return "", err
	}

	id := uuid.New().String()

	data, err := codec.MarshalJSON(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)`, collection)

	err = s.retry(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, query, id, data); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if s.closed.Load() {
		return nil, persistence.ErrClosed
	}

	defer observe("get", collection)()

	return getDoc(ctx, s.db, collection, id)
}

func (s *Store) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if s.closed.Load() {
		return persistence.ErrClosed
	}

	defer observe("update", collection)()

	data, err := codec.MarshalJSON(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET data = ? WHERE id = ?`, collection)

	return s.retry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, data, id)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		return checkAffected(result)
	})
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	if s.closed.Load() {
		return persistence.ErrClosed
	}

	defer observe("delete", collection)()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, collection)

	return s.retry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}

		return checkAffected(result)
	})
}

func (s *Store) List(ctx context.Context, collection string) ([]persistence.Entry, error) {
	if s.closed.Load() {
		return nil, persistence.ErrClosed
	}

	defer observe("list", collection)()

	return listDocs(ctx, s.db, collection)
}

func (s *Store) BeginTx(ctx context.Context) (persistence.Tx, error) {
	if s.closed.Load() {
		return nil, persistence.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{tx: tx}, nil
}

func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return persistence.ErrClosed
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// observe times one store operation for the persistence metrics.
func observe(operation, collection string) func() {
	start := time.Now()

	return func() {
		metrics.RecordPersistenceOp(operation, collection, backendName, time.Since(start))
	}
}

// querier is the subset of *sql.DB and *sql.Tx the read paths need.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getDoc(ctx context.Context, q querier, collection, id string) (persistence.Document, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, collection)

	var data []byte

	err := q.QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMissingTable(err) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var doc persistence.Document
	if err := codec.UnmarshalJSON(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return doc, nil
}

func listDocs(ctx context.Context, q querier, collection string) ([]persistence.Entry, error) {
	query := `SELECT id, data FROM ` + collection

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		if isMissingTable(err) {
			return []persistence.Entry{}, nil
		}

		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	defer func() { _ = rows.Close() }()

	entries := []persistence.Entry{}

	for rows.Next() {
		var (
			id   string
			data []byte
		)

		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var doc persistence.Document
		if err := codec.UnmarshalJSON(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}

		entries = append(entries, persistence.Entry{ID: id, Doc: doc})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}

func isMissingTable(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrError
	}

	return false
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

type sqliteTx struct {
	tx   *sql.Tx
	done bool
}

func (t *sqliteTx) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	if t.done {
		return "", persistence.ErrTxDone
	}

	if err := persistence.ValidateCollectionName(collection); err != nil {
		return "", err
	}

	id := uuid.New().String()

	data, err := codec.MarshalJSON(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)`, collection)

	if _, err := t.tx.ExecContext(ctx, query, id, data); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

func (t *sqliteTx) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if t.done {
		return nil, persistence.ErrTxDone
	}

	return getDoc(ctx, t.tx, collection, id)
}

func (t *sqliteTx) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if t.done {
		return persistence.ErrTxDone
	}

	data, err := codec.MarshalJSON(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET data = ? WHERE id = ?`, collection)

	result, err := t.tx.ExecContext(ctx, query, data, id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return checkAffected(result)
}

func (t *sqliteTx) Delete(ctx context.Context, collection string, id string) error {
	if t.done {
		return persistence.ErrTxDone
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, collection)

	result, err := t.tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return checkAffected(result)
}

func (t *sqliteTx) List(ctx context.Context, collection string) ([]persistence.Entry, error) {
	if t.done {
		return nil, persistence.ErrTxDone
	}

	return listDocs(ctx, t.tx, collection)
}

func (t *sqliteTx) Commit() error {
	if t.done {
		return persistence.ErrTxDone
	}

	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (t *sqliteTx) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}
