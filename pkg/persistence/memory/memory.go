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

// Package memory provides an in-memory persistence.Store, used for tests
// and for callers that want snapshot archival without a database file.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/united-manufacturing-hub/docjournal/pkg/document"
	"github.com/united-manufacturing-hub/docjournal/pkg/persistence"
)

// Store keeps collections in maps under one RWMutex. Documents are deep
// copied at every boundary crossing, so callers and the store never alias
// each other's values.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]persistence.Document
	closed      bool
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]persistence.Document),
	}
}

func cloneDoc(doc persistence.Document) persistence.Document {
	if doc == nil {
		return nil
	}

	return persistence.Document(document.CloneDocument(document.Document(doc)))
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := persistence.ValidateCollectionName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}

	if _, ok := s.collections[name]; !ok {
		s.collections[name] = make(map[string]persistence.Document)
	}

	return nil
}

func (s *Store) DropCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := persistence.ValidateCollectionName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}

	delete(s.collections, name)

	return nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := persistence.ValidateCollectionName(collection); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", persistence.ErrClosed
	}

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]persistence.Document)
		s.collections[collection] = coll
	}

	id := uuid.New().String()
	coll[id] = cloneDoc(doc)

	return id, nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, persistence.ErrClosed
	}

	coll, ok := s.collections[collection]
	if !ok {
		return nil, persistence.ErrNotFound
	}

	doc, ok := coll[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}

	return cloneDoc(doc), nil
}

func (s *Store) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}

	coll, ok := s.collections[collection]
	if !ok {
		return persistence.ErrNotFound
	}

	if _, ok := coll[id]; !ok {
		return persistence.ErrNotFound
	}

	coll[id] = cloneDoc(doc)

	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}

	coll, ok := s.collections[collection]
	if !ok {
		return persistence.ErrNotFound
	}

	if _, ok := coll[id]; !ok {
		return persistence.ErrNotFound
	}

	delete(coll, id)

	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]persistence.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, persistence.ErrClosed
	}

	coll := s.collections[collection]
	entries := make([]persistence.Entry, 0, len(coll))

	for id, doc := range coll {
		entries = append(entries, persistence.Entry{ID: id, Doc: cloneDoc(doc)})
	}

	return entries, nil
}

func (s *Store) BeginTx(ctx context.Context) (persistence.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, persistence.ErrClosed
	}

	return &memoryTx{
		store:   s,
		writes:  make(map[string]map[string]persistence.Document),
		deletes: make(map[string]map[string]bool),
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}

	s.closed = true
	s.collections = nil

	return nil
}

// memoryTx overlays pending writes and deletes on the store. Reads check
// the overlay first (read-your-own-writes), then the store. Commit takes
// the store write lock once and replays the overlay atomically.
type memoryTx struct {
	store   *Store
	mu      sync.Mutex
	writes  map[string]map[string]persistence.Document
	deletes map[string]map[string]bool
	done    bool
}

func (t *memoryTx) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := persistence.ValidateCollectionName(collection); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return "", persistence.ErrTxDone
	}

	id := uuid.New().String()
	t.stageLocked(collection, id, cloneDoc(doc))

	return id, nil
}

func (t *memoryTx) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil, persistence.ErrTxDone
	}

	if t.deletes[collection][id] {
		return nil, persistence.ErrNotFound
	}

	if doc, ok := t.writes[collection][id]; ok {
		return cloneDoc(doc), nil
	}

	return t.store.Get(ctx, collection, id)
}

func (t *memoryTx) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return persistence.ErrTxDone
	}

	if t.deletes[collection][id] {
		return persistence.ErrNotFound
	}

	if _, ok := t.writes[collection][id]; !ok {
		if _, err := t.store.Get(ctx, collection, id); err != nil {
			return err
		}
	}

	t.stageLocked(collection, id, cloneDoc(doc))

	return nil
}

func (t *memoryTx) Delete(ctx context.Context, collection string, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return persistence.ErrTxDone
	}

	if t.deletes[collection][id] {
		return persistence.ErrNotFound
	}

	if _, staged := t.writes[collection][id]; !staged {
		if _, err := t.store.Get(ctx, collection, id); err != nil {
			return err
		}
	}

	if coll, ok := t.writes[collection]; ok {
		delete(coll, id)
	}

	if t.deletes[collection] == nil {
		t.deletes[collection] = make(map[string]bool)
	}

	t.deletes[collection][id] = true

	return nil
}

func (t *memoryTx) List(ctx context.Context, collection string) ([]persistence.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil, persistence.ErrTxDone
	}

	base, err := t.store.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	entries := make([]persistence.Entry, 0, len(base)+len(t.writes[collection]))
	seen := make(map[string]bool, len(t.writes[collection]))

	for id, doc := range t.writes[collection] {
		entries = append(entries, persistence.Entry{ID: id, Doc: cloneDoc(doc)})
		seen[id] = true
	}

	for _, entry := range base {
		if seen[entry.ID] || t.deletes[collection][entry.ID] {
			continue
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (t *memoryTx) stageLocked(collection, id string, doc persistence.Document) {
	if t.writes[collection] == nil {
		t.writes[collection] = make(map[string]persistence.Document)
	}

	t.writes[collection][id] = doc

	if t.deletes[collection] != nil {
		delete(t.deletes[collection], id)
	}
}

func (t *memoryTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return persistence.ErrTxDone
	}

	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}

	for collection, ids := range t.deletes {
		coll := s.collections[collection]
		for id := range ids {
			delete(coll, id)
		}
	}

	for collection, docs := range t.writes {
		coll, ok := s.collections[collection]
		if !ok {
			coll = make(map[string]persistence.Document)
			s.collections[collection] = coll
		}

		for id, doc := range docs {
			coll[id] = doc
		}
	}

	return nil
}

func (t *memoryTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}

	t.done = true
	t.writes = nil
	t.deletes = nil

	return nil
}
