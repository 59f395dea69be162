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

package observed

import (
	"sort"

	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

// Map is the intercepting view over a mapping node of the tracked tree.
type Map struct {
	ctrl Controller
	path []interface{}
}

// NewMap returns a view over the mapping at path. The root view of a
// container uses an empty path.
func NewMap(ctrl Controller, path []interface{}) *Map {
	return &Map{ctrl: ctrl, path: clonePath(path)}
}

// Get reads key. Plain container values come back wrapped as *Map or
// *List; scalars and values outside the plain JSON shape come back as-is.
// The second return is false if the key is absent or the view's own path
// no longer resolves to a mapping.
func (m *Map) Get(key string) (interface{}, bool) {
	value, ok := m.ctrl.ReadPath(extend(m.path, key))
	if !ok {
		return nil, false
	}

	return wrap(m.ctrl, extend(m.path, key), value), true
}

// GetMap reads key and returns the child view if the value is a plain
// mapping.
func (m *Map) GetMap(key string) (*Map, bool) {
	value, ok := m.Get(key)
	if !ok {
		return nil, false
	}

	child, isMap := value.(*Map)

	return child, isMap
}

// GetList reads key and returns the child view if the value is a plain
// sequence.
func (m *Map) GetList(key string) (*List, bool) {
	value, ok := m.Get(key)
	if !ok {
		return nil, false
	}

	child, isList := value.(*List)

	return child, isList
}

// Set writes value at key through the container's interception pipeline.
// Writing to a frozen container is a silent no-op, writing the value a
// key already holds commits nothing.
func (m *Map) Set(key string, value interface{}) {
	m.ctrl.WritePath(extend(m.path, key), value)
}

// Delete removes key. Deleting an absent key commits nothing.
func (m *Map) Delete(key string) {
	m.ctrl.DeletePath(extend(m.path, key))
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.ctrl.ReadPath(extend(m.path, key))

	return ok
}

// Len returns the number of keys, or 0 if the view's path no longer
// resolves to a mapping.
func (m *Map) Len() int {
	raw, ok := m.ctrl.ReadPath(m.path)
	if !ok {
		return 0
	}

	node, isMap := raw.(document.Document)
	if !isMap {
		return 0
	}

	return len(node)
}

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	raw, ok := m.ctrl.ReadPath(m.path)
	if !ok {
		return nil
	}

	node, isMap := raw.(document.Document)
	if !isMap {
		return nil
	}

	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Snapshot returns a deep copy of the subtree under this view, detached
// from the live tree. Returns nil if the path no longer resolves to a
// mapping.
func (m *Map) Snapshot() document.Document {
	raw, ok := m.ctrl.ReadPath(m.path)
	if !ok {
		return nil
	}

	node, isMap := raw.(document.Document)
	if !isMap {
		return nil
	}

	return document.CloneDocument(node)
}

// Path returns a copy of the view's path from the tree root.
func (m *Map) Path() []interface{} {
	return clonePath(m.path)
}

// wrap turns a raw stored value into what callers see: a child view for
// plain containers, the value itself for everything else.
func wrap(ctrl Controller, path []interface{}, value interface{}) interface{} {
	switch value.(type) {
	case document.Document:
		return &Map{ctrl: ctrl, path: path}
	case []interface{}:
		return &List{ctrl: ctrl, path: path}
	default:
		return value
	}
}
