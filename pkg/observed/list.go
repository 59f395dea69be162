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
	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

// List is the intercepting view over a sequence node of the tracked tree.
type List struct {
	ctrl Controller
	path []interface{}
}

// NewList returns a view over the sequence at path.
func NewList(ctrl Controller, path []interface{}) *List {
	return &List{ctrl: ctrl, path: clonePath(path)}
}

// Index reads element i. Plain container values come back wrapped as
// *Map or *List; scalars and values outside the plain JSON shape come
// back as-is. The second return is false for an out-of-range index or if
// the view's path no longer resolves to a sequence.
func (l *List) Index(i int) (interface{}, bool) {
	if i < 0 {
		return nil, false
	}

	value, ok := l.ctrl.ReadPath(extend(l.path, i))
	if !ok {
		return nil, false
	}

	return wrap(l.ctrl, extend(l.path, i), value), true
}

// IndexMap reads element i and returns the child view if it is a plain
// mapping.
func (l *List) IndexMap(i int) (*Map, bool) {
	value, ok := l.Index(i)
	if !ok {
		return nil, false
	}

	child, isMap := value.(*Map)

	return child, isMap
}

// IndexList reads element i and returns the child view if it is a plain
// sequence.
func (l *List) IndexList(i int) (*List, bool) {
	value, ok := l.Index(i)
	if !ok {
		return nil, false
	}

	child, isList := value.(*List)

	return child, isList
}

// SetIndex writes value at element i through the container's
// interception pipeline. Out-of-range and negative indexes are silent
// no-ops.
func (l *List) SetIndex(i int, value interface{}) {
	if i < 0 {
		return
	}

	l.ctrl.WritePath(extend(l.path, i), value)
}

// Append adds value after the current last element.
func (l *List) Append(value interface{}) {
	l.ctrl.AppendPath(l.path, value)
}

// Len returns the number of elements, or 0 if the view's path no longer
// resolves to a sequence.
func (l *List) Len() int {
	raw, ok := l.ctrl.ReadPath(l.path)
	if !ok {
		return 0
	}

	node, isList := raw.([]interface{})
	if !isList {
		return 0
	}

	return len(node)
}

// Snapshot returns a deep copy of the sequence under this view, detached
// from the live tree. Returns nil if the path no longer resolves to a
// sequence.
func (l *List) Snapshot() []interface{} {
	raw, ok := l.ctrl.ReadPath(l.path)
	if !ok {
		return nil
	}

	node, isList := raw.([]interface{})
	if !isList {
		return nil
	}

	cloned, _ := document.Clone(node).([]interface{})

	return cloned
}

// Path returns a copy of the view's path from the tree root.
func (l *List) Path() []interface{} {
	return clonePath(l.path)
}
