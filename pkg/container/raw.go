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

package container

import (
	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

// ReadPath resolves path against the live tree and returns the raw value.
// Map steps take string keys, sequence steps take int indexes; a path
// that does not resolve returns false.
func (c *Container) ReadPath(path []interface{}) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return rawResolve(c.tree, path)
}

// WritePath sets the value at path. The value is deep copied on the way
// in, so the caller may keep mutating its original. Writes to paths
// whose parent does not resolve are silently dropped.
func (c *Container) WritePath(path []interface{}, value interface{}) {
	value = document.Clone(value)

	c.mutate(func(tree document.Document) bool {
		return rawWrite(tree, path, value)
	})
}

// AppendPath grows the sequence at path by one element, deep copying the
// value like WritePath. Dropped silently when path does not resolve to a
// sequence.
func (c *Container) AppendPath(path []interface{}, value interface{}) {
	value = document.Clone(value)

	c.mutate(func(tree document.Document) bool {
		return rawAppend(tree, path, value)
	})
}

// DeletePath removes the map entry at path. Sequence elements cannot be
// removed; such paths are silently dropped, as are absent keys.
func (c *Container) DeletePath(path []interface{}) {
	c.mutate(func(tree document.Document) bool {
		return rawDelete(tree, path)
	})
}

// rawResolve walks path from node without copying anything.
func rawResolve(node interface{}, path []interface{}) (interface{}, bool) {
	current := node

	for _, step := range path {
		switch parent := current.(type) {
		case document.Document:
			key, ok := step.(string)
			if !ok {
				return nil, false
			}

			current, ok = parent[key]
			if !ok {
				return nil, false
			}
		case []interface{}:
			idx, ok := step.(int)
			if !ok || idx < 0 || idx >= len(parent) {
				return nil, false
			}

			current = parent[idx]
		default:
			return nil, false
		}
	}

	return current, true
}

// rawWrite sets the value at path in place. Map writes may create the
// final key; sequence writes require an existing index. Intermediate
// steps must already exist.
func rawWrite(root document.Document, path []interface{}, value interface{}) bool {
	if len(path) == 0 {
		return false
	}

	parent, ok := rawResolve(root, path[:len(path)-1])
	if !ok {
		return false
	}

	switch target := parent.(type) {
	case document.Document:
		key, ok := path[len(path)-1].(string)
		if !ok {
			return false
		}

		target[key] = value

		return true
	case []interface{}:
		idx, ok := path[len(path)-1].(int)
		if !ok || idx < 0 || idx >= len(target) {
			return false
		}

		target[idx] = value

		return true
	default:
		return false
	}
}

// rawAppend grows the sequence at path. Appending moves the slice
// header, so the grown sequence is written back into its parent.
func rawAppend(root document.Document, path []interface{}, value interface{}) bool {
	current, ok := rawResolve(root, path)
	if !ok {
		return false
	}

	seq, ok := current.([]interface{})
	if !ok {
		return false
	}

	return rawWrite(root, path, append(seq, value))
}

// rawDelete removes the map entry at path. Only map parents support
// removal; absent keys report false so no diff is attempted.
func rawDelete(root document.Document, path []interface{}) bool {
	if len(path) == 0 {
		return false
	}

	parent, ok := rawResolve(root, path[:len(path)-1])
	if !ok {
		return false
	}

	target, ok := parent.(document.Document)
	if !ok {
		return false
	}

	key, ok := path[len(path)-1].(string)
	if !ok {
		return false
	}

	if _, exists := target[key]; !exists {
		return false
	}

	delete(target, key)

	return true
}
