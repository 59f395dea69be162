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

// Package persistence defines the storage contract the archive writes
// through: collections of JSON-shaped documents with CRUD operations and
// explicit transactions. Implementations live in the memory and sqlite
// subpackages; both satisfy the same contract, so tests and callers can
// swap backends freely.
package persistence

import (
	"context"
	"regexp"
)

// Document is a JSON-serializable document stored in a collection. Any
// value that survives a JSON round trip works; backends may store it as a
// blob, a JSON column or natively.
type Document map[string]interface{}

var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateCollectionName reports whether name is usable as a collection
// name. Names map to table names in SQL backends, so they are restricted
// to identifier characters; anything else returns ErrInvalidName.
func ValidateCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return ErrInvalidName
	}

	return nil
}

// Store provides collection/document CRUD over an arbitrary backend.
//
// All methods are safe for concurrent use; implementations synchronize
// internally. Documents are copied at the store boundary in both
// directions: a caller mutating a document after Insert, or mutating a
// document returned by Get, never changes stored state.
//
// Errors are sentinels checked with errors.Is: ErrNotFound for missing
// documents or collections, ErrInvalidName for bad collection names,
// ErrClosed after Close, plus context errors when ctx is done.
type Store interface {
	// CreateCollection creates a collection if it does not exist yet.
	// Creating an existing collection is a no-op.
	CreateCollection(ctx context.Context, name string) error

	// DropCollection removes a collection and all its documents. Dropping
	// an absent collection is a no-op.
	DropCollection(ctx context.Context, name string) error

	// Insert adds a document and returns its generated id.
	Insert(ctx context.Context, collection string, doc Document) (id string, err error)

	// Get retrieves a document by id. Returns ErrNotFound when the
	// document or the collection does not exist.
	Get(ctx context.Context, collection string, id string) (Document, error)

	// Update replaces a document entirely. Returns ErrNotFound when the
	// document does not exist; partial updates are read-modify-write at
	// the caller, inside a transaction when atomicity matters.
	Update(ctx context.Context, collection string, id string, doc Document) error

	// Delete removes a document by id. Returns ErrNotFound when the
	// document does not exist.
	Delete(ctx context.Context, collection string, id string) error

	// List returns all documents in a collection with their ids, in
	// unspecified order. An empty or absent collection yields an empty
	// slice.
	List(ctx context.Context, collection string) ([]Entry, error)

	// BeginTx starts a transaction. Operations on the returned Tx see
	// their own uncommitted writes; nothing is visible to the store until
	// Commit.
	BeginTx(ctx context.Context) (Tx, error)

	// Close releases backend resources. Subsequent operations return
	// ErrClosed.
	Close() error
}

// Entry pairs a stored document with its id, for listing.
type Entry struct {
	ID  string
	Doc Document
}

// Tx is a transaction over a Store. Reads see the transaction's own
// uncommitted writes. After Commit or Rollback the Tx is done and every
// further operation returns ErrTxDone; Rollback after Commit is a no-op,
// so `defer tx.Rollback()` is always safe.
type Tx interface {
	Insert(ctx context.Context, collection string, doc Document) (id string, err error)
	Get(ctx context.Context, collection string, id string) (Document, error)
	Update(ctx context.Context, collection string, id string, doc Document) error
	Delete(ctx context.Context, collection string, id string) error
	List(ctx context.Context, collection string) ([]Entry, error)

	// Commit makes all transaction changes permanent and ends the Tx.
	Commit() error

	// Rollback discards all transaction changes. Idempotent; a no-op
	// after Commit.
	Rollback() error
}

// Sentinel errors returned by Store implementations, checked with
// errors.Is(err, persistence.ErrNotFound).
var (
	// ErrNotFound indicates a document or collection was not found.
	ErrNotFound = &storeError{msg: "document not found"}

	// ErrConflict indicates a uniqueness or concurrent-modification
	// conflict.
	ErrConflict = &storeError{msg: "document conflict"}

	// ErrClosed indicates an operation on a closed store.
	ErrClosed = &storeError{msg: "store is closed"}

	// ErrInvalidName indicates a collection name outside
	// ^[a-zA-Z_][a-zA-Z0-9_]*$.
	ErrInvalidName = &storeError{msg: "invalid collection name"}

	// ErrTxDone indicates an operation on a committed or rolled back
	// transaction.
	ErrTxDone = &storeError{msg: "transaction already finished"}
)

// storeError implements the error interface for persistence sentinels.
type storeError struct {
	msg string
}

func (e *storeError) Error() string {
	return e.msg
}
