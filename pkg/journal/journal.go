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

// Package journal implements the linear change history backing a tracked
// container: an ordered sequence of change records plus a position cursor.
//
// The cursor records how many entries, applied in order from the baseline,
// yield the current tree. Entries below the cursor are undoable, entries at
// or above it redoable. Committing while the cursor sits below the end
// discards the redoable tail; history is a single timeline, never a tree of
// alternatives.
//
// The journal owns cursor arithmetic only. Applying records to trees is the
// container's job: it peeks at the entry on the relevant side, attempts the
// provider call, and moves the cursor only after the application succeeded.
// A Journal is not safe for concurrent use; the owning container
// serializes access.
package journal

import (
	"fmt"

	"github.com/united-manufacturing-hub/docjournal/pkg/delta"
)

// ErrInvalidPosition indicates a cursor target outside [0, Len].
// Checked with errors.Is.
var ErrInvalidPosition = &journalError{msg: "position out of range"}

// journalError implements the error interface for journal sentinels.
type journalError struct {
	msg string
}

func (e *journalError) Error() string {
	return e.msg
}

// Journal is an ordered sequence of change records with a position cursor
// in [0, Len]. The zero value is not usable; construct with New.
type Journal struct {
	entries  []*delta.Record
	position int
	limit    int
}

// New returns an empty journal. limit caps the number of retained entries;
// 0 means unlimited. When a commit would exceed the limit the oldest entry
// is evicted and the reachable baseline advances past it.
func New(limit int) *Journal {
	if limit < 0 {
		limit = 0
	}

	return &Journal{limit: limit}
}

// Commit discards every entry at or above the cursor, appends rec there,
// and advances the cursor past it. Returns how many redoable entries were
// discarded.
func (j *Journal) Commit(rec *delta.Record) int {
	truncated := len(j.entries) - j.position

	j.entries = append(j.entries[:j.position:j.position], rec)
	j.position = len(j.entries)

	if j.limit > 0 && len(j.entries) > j.limit {
		overflow := len(j.entries) - j.limit
		j.entries = append([]*delta.Record(nil), j.entries[overflow:]...)
		j.position -= overflow
	}

	return truncated
}

// Undoable returns true if at least one entry sits below the cursor.
func (j *Journal) Undoable() bool {
	return j.position > 0
}

// Redoable returns true if at least one entry sits at or above the cursor.
func (j *Journal) Redoable() bool {
	return j.position < len(j.entries)
}

// PeekBack returns the entry an undo would revert, without moving the
// cursor. Returns false if nothing is undoable.
func (j *Journal) PeekBack() (*delta.Record, bool) {
	if !j.Undoable() {
		return nil, false
	}

	return j.entries[j.position-1], true
}

// PeekForward returns the entry a redo would replay, without moving the
// cursor. Returns false if nothing is redoable.
func (j *Journal) PeekForward() (*delta.Record, bool) {
	if !j.Redoable() {
		return nil, false
	}

	return j.entries[j.position], true
}

// StepBack moves the cursor one entry down. Callers apply the record
// first (PeekBack) and step only after the application succeeded.
func (j *Journal) StepBack() bool {
	if !j.Undoable() {
		return false
	}

	j.position--

	return true
}

// StepForward moves the cursor one entry up, mirroring StepBack.
func (j *Journal) StepForward() bool {
	if !j.Redoable() {
		return false
	}

	j.position++

	return true
}

// Position returns the cursor.
func (j *Journal) Position() int {
	return j.position
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Entries returns a copy of the retained entries in commit order. The
// records themselves are shared; they are immutable once committed.
func (j *Journal) Entries() []*delta.Record {
	out := make([]*delta.Record, len(j.entries))
	copy(out, j.entries)

	return out
}

// EntryAt returns the entry at index i in [0, Len).
func (j *Journal) EntryAt(i int) (*delta.Record, error) {
	if i < 0 || i >= len(j.entries) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrInvalidPosition, i, len(j.entries))
	}

	return j.entries[i], nil
}

// Clear drops all entries and resets the cursor. The current tree becomes
// the sole reachable baseline.
func (j *Journal) Clear() {
	j.entries = nil
	j.position = 0
}

// Restore replaces the journal contents wholesale, validating that the
// cursor lands inside [0, len(entries)]. The retention limit is not
// enforced on restored entries, only on subsequent commits; evicting here
// could push the baseline past the restored cursor.
func (j *Journal) Restore(entries []*delta.Record, position int) error {
	if position < 0 || position > len(entries) {
		return fmt.Errorf("%w: position %d, length %d", ErrInvalidPosition, position, len(entries))
	}

	j.entries = make([]*delta.Record, len(entries))
	copy(j.entries, entries)
	j.position = position

	return nil
}
