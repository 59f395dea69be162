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

// Package delta defines the diff/patch contract between the history engine
// and whatever computes change records, plus the default field-level
// implementation.
//
// The engine consumes three operations: Diff produces a Record (or nil when
// two trees do not observably differ), ApplyForward replays a Record on top
// of a base tree, ApplyBackward reverts one. Apply operations return a new
// tree and never mutate their input; when a Record does not fit the base
// tree they return an error and the engine leaves its state untouched.
//
// Records are opaque to the engine: it stores them, counts them, forwards
// them to subscribers, and round-trips them through snapshots, but never
// reads their fields.
package delta

import (
	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

// Provider computes and applies change records between tree snapshots.
//
// Implementations must be pure with respect to their inputs: Diff and the
// Apply operations may not retain or mutate the trees they are given.
// A nil Record from Diff means "no observable difference". Apply
// operations return ErrMismatch-wrapped errors when the record cannot be
// applied to the given base; they must not partially mutate anything on
// that path.
type Provider interface {
	// Diff computes the change record between two tree snapshots.
	// Returns nil if the trees do not observably differ.
	Diff(before, after document.Document) *Record

	// ApplyForward replays rec on top of tree, returning the resulting
	// tree. The input tree is never mutated.
	ApplyForward(tree document.Document, rec *Record) (document.Document, error)

	// ApplyBackward reverts rec from tree, returning the tree as it was
	// before the record was applied. The input tree is never mutated.
	ApplyBackward(tree document.Document, rec *Record) (document.Document, error)
}

// ErrMismatch indicates a change record does not fit the base tree it is
// being applied to. Checked with errors.Is.
var ErrMismatch = &deltaError{msg: "change record does not match base tree"}

// deltaError implements the error interface for delta package sentinels.
type deltaError struct {
	msg string
}

func (e *deltaError) Error() string {
	return e.msg
}
