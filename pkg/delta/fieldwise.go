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

package delta

import (
	"fmt"

	"github.com/snorwin/jsonpatch"

	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

// FieldProvider is the default Provider. It compares trees at top-level
// field granularity: a key present only in the newer tree is Added, only
// in the older tree is Removed (prior value retained for reversal), and
// present in both with different content is Modified with the full old
// and new subtree.
//
// Application is strict: every key a record touches must carry the value
// the record expects, otherwise the apply fails with ErrMismatch and the
// base tree is left untouched. This surfaces foreign-state corruption
// instead of silently producing a tree that no longer matches history.
type FieldProvider struct{}

// NewFieldProvider returns the default field-level diff provider.
func NewFieldProvider() *FieldProvider {
	return &FieldProvider{}
}

// Diff computes field-level differences between two trees.
// Returns nil if the trees are structurally identical.
func (p *FieldProvider) Diff(before, after document.Document) *Record {
	rec := &Record{
		Added:    make(map[string]interface{}),
		Modified: make(map[string]FieldChange),
		Removed:  make(map[string]interface{}),
	}

	for key, newVal := range after {
		if oldVal, exists := before[key]; !exists {
			rec.Added[key] = document.Clone(newVal)
		} else if !document.Equal(oldVal, newVal) {
			rec.Modified[key] = FieldChange{
				Old: document.Clone(oldVal),
				New: document.Clone(newVal),
			}
		}
	}

	for key, oldVal := range before {
		if _, exists := after[key]; !exists {
			rec.Removed[key] = document.Clone(oldVal)
		}
	}

	if rec.IsEmpty() {
		return nil
	}

	rec.Ops = renderOperations(before, after)

	return rec
}

// ApplyForward replays rec on top of tree, returning a new tree.
func (p *FieldProvider) ApplyForward(tree document.Document, rec *Record) (document.Document, error) {
	if rec.IsEmpty() {
		return document.CloneDocument(tree), nil
	}

	out := document.CloneDocument(tree)

	for key, addedVal := range rec.Added {
		if existing, present := out[key]; present && !document.Equal(existing, addedVal) {
			return nil, fmt.Errorf("%w: added key %q already holds a different value", ErrMismatch, key)
		}

		out[key] = document.Clone(addedVal)
	}

	for key, change := range rec.Modified {
		existing, present := out[key]
		if !present || !document.Equal(existing, change.Old) {
			return nil, fmt.Errorf("%w: modified key %q does not hold the expected prior value", ErrMismatch, key)
		}

		out[key] = document.Clone(change.New)
	}

	for key, removedVal := range rec.Removed {
		existing, present := out[key]
		if !present || !document.Equal(existing, removedVal) {
			return nil, fmt.Errorf("%w: removed key %q does not hold the expected prior value", ErrMismatch, key)
		}

		delete(out, key)
	}

	return out, nil
}

// ApplyBackward reverts rec from tree, returning a new tree.
func (p *FieldProvider) ApplyBackward(tree document.Document, rec *Record) (document.Document, error) {
	if rec.IsEmpty() {
		return document.CloneDocument(tree), nil
	}

	out := document.CloneDocument(tree)

	for key, addedVal := range rec.Added {
		existing, present := out[key]
		if !present || !document.Equal(existing, addedVal) {
			return nil, fmt.Errorf("%w: added key %q does not hold the recorded value", ErrMismatch, key)
		}

		delete(out, key)
	}

	for key, change := range rec.Modified {
		existing, present := out[key]
		if !present || !document.Equal(existing, change.New) {
			return nil, fmt.Errorf("%w: modified key %q does not hold the recorded value", ErrMismatch, key)
		}

		out[key] = document.Clone(change.Old)
	}

	for key, removedVal := range rec.Removed {
		if existing, present := out[key]; present && !document.Equal(existing, removedVal) {
			return nil, fmt.Errorf("%w: removed key %q reappeared with a different value", ErrMismatch, key)
		}

		out[key] = document.Clone(removedVal)
	}

	return out, nil
}

// renderOperations produces the RFC 6902 view of the difference between
// two trees. Rendering failure degrades to no operations; the field-level
// data in the Record stays authoritative either way.
func renderOperations(before, after document.Document) []Operation {
	list, err := jsonpatch.CreateJSONPatch(after, before)
	if err != nil {
		return nil
	}

	patches := list.List()
	if len(patches) == 0 {
		return nil
	}

	ops := make([]Operation, 0, len(patches))
	for _, patch := range patches {
		ops = append(ops, Operation{
			Op:    patch.Operation,
			Path:  patch.Path,
			Value: document.Clone(patch.Value),
		})
	}

	return ops
}
