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

// Package document defines the tree value model tracked by the history
// engine and the structural operations the engine needs on it: deep
// cloning, structural equality, and content hashing.
//
// A tracked tree is JSON-shaped: the root is a Document, values inside it
// are scalars (nil, bool, string, numeric), []interface{} sequences, or
// nested map[string]interface{} mappings. Trees must be acyclic; Clone and
// Equal do not terminate on cyclic values.
package document

import (
	"github.com/tiendc/go-deepcopy"
)

// Document represents a JSON-serializable document tracked by a container.
//
// Example:
//
//	doc := document.Document{
//	    "name": "Press Machine A",
//	    "tags": []interface{}{"production", "critical"},
//	    "limits": map[string]interface{}{
//	        "temperature": 80,
//	    },
//	}
type Document = map[string]interface{}

// Clone returns a deep, reference-free copy of v.
//
// Plain containers (map[string]interface{}, []interface{}) are rebuilt
// element by element, recursing into nested containers. Scalars are
// returned as-is. Any other value (typed structs, typed maps, typed
// slices) is copied with deepcopy so callers never share mutable state
// with the input. nil is returned as nil.
func Clone(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case Document:
		out := make(Document, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}

		return out
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	default:
		return cloneOpaque(v)
	}
}

// CloneDocument is Clone specialized for tree roots. A nil input yields an
// empty Document so callers always receive a writable map.
func CloneDocument(doc Document) Document {
	if doc == nil {
		return Document{}
	}

	out, ok := Clone(doc).(Document)
	if !ok {
		return Document{}
	}

	return out
}

// cloneOpaque copies values outside the plain JSON shape. Falls back to
// returning the input unchanged if the copy fails, which can only happen
// for values the engine does not own (e.g. channels smuggled into a tree).
func cloneOpaque(v interface{}) interface{} {
	var out interface{}
	if err := deepcopy.Copy(&out, v); err != nil {
		return v
	}

	return out
}
