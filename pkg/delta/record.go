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

// Record captures the reversible difference between two tree snapshots at
// top-level field granularity. A change anywhere inside a nested container
// appears as a Modified entry for the top-level key that contains it, with
// the whole old and new subtree retained so the change can be reverted.
//
// Records are immutable once committed to a journal; all values inside
// them are deep copies taken at diff time. The exported fields exist for
// providers and snapshot encoding; the engine itself never inspects them.
type Record struct {
	Added    map[string]interface{} `json:"added,omitempty"`
	Modified map[string]FieldChange `json:"modified,omitempty"`
	Removed  map[string]interface{} `json:"removed,omitempty"`
	Ops      []Operation            `json:"ops,omitempty"`
}

// FieldChange represents a top-level field that changed between two trees.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Operation is one RFC 6902 operation in the rendered view of a Record.
// The rendering is informational (event payloads, export); forward and
// backward application use the field-level data, not the operations.
type Operation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// IsEmpty returns true if the Record contains no changes.
// A nil Record is considered empty.
func (r *Record) IsEmpty() bool {
	if r == nil {
		return true
	}

	return len(r.Added) == 0 && len(r.Modified) == 0 && len(r.Removed) == 0
}

// Operations returns the RFC 6902 rendering of the record, in document
// order as produced at diff time. May be empty when rendering failed or
// the record was built by a provider that does not render operations.
func (r *Record) Operations() []Operation {
	if r == nil {
		return nil
	}

	out := make([]Operation, len(r.Ops))
	copy(out, r.Ops)

	return out
}

// Fields returns how many top-level fields the record touches.
func (r *Record) Fields() int {
	if r == nil {
		return 0
	}

	return len(r.Added) + len(r.Modified) + len(r.Removed)
}
