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

// Package observed implements the interception layer of the history
// engine: view types that look like a plain nested structure but dispatch
// every read and write back to the owning container.
//
// Views are non-owning. A Map or List holds only a path and a Controller
// reference; each operation resolves the path against the canonical tree
// at call time, so a view stays valid across undo, redo and restore (it
// simply reads whatever now lives at its path, or reports absence if the
// path is gone).
//
// Reading a field whose value is a plain mapping or sequence returns a
// child view over that field (lazy recursive wrapping). Scalars come back
// as-is. Values outside the plain JSON shape (typed structs, typed maps,
// typed slices) are returned raw and unwrapped: writes through such a
// value bypass change tracking, which is the documented fallback for
// values the engine cannot re-dispatch.
package observed

// Controller is the authority a view dispatches to. Implemented by the
// state container. Paths are sequences of string map keys and int
// sequence indexes, addressed from the tree root.
//
// ReadPath returns the raw stored value; views are responsible for
// wrapping containers before handing anything to callers. Write, append
// and delete run the container's full interception pipeline (freeze and
// batch gating, snapshotting, diff, commit, notification).
type Controller interface {
	ReadPath(path []interface{}) (interface{}, bool)
	WritePath(path []interface{}, value interface{})
	AppendPath(path []interface{}, value interface{})
	DeletePath(path []interface{})
}

// extend returns path + elem in a fresh backing array, so sibling views
// derived from the same parent never share append capacity.
func extend(path []interface{}, elem interface{}) []interface{} {
	out := make([]interface{}, len(path)+1)
	copy(out, path)
	out[len(path)] = elem

	return out
}

// clonePath returns an independent copy of a path.
func clonePath(path []interface{}) []interface{} {
	out := make([]interface{}, len(path))
	copy(out, path)

	return out
}
