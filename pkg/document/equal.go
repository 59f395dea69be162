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

package document

import (
	"encoding/json"
	"reflect"
	"strconv"
)

// Equal reports whether two tree values are structurally equal.
//
// Numeric values compare by magnitude regardless of their Go width, so a
// tree that round-tripped through JSON (where every number decodes as
// float64) still compares equal to its pre-serialization form. Maps
// compare by key set, sequences element-wise in order. Values outside the
// plain JSON shape fall back to reflect.DeepEqual.
func Equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)

		return bok && af == bf
	}

	switch av := a.(type) {
	case Document:
		bv, ok := b.(Document)
		if !ok || len(av) != len(bv) {
			return false
		}

		for k, aElem := range av {
			bElem, exists := bv[k]
			if !exists || !Equal(aElem, bElem) {
				return false
			}
		}

		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}

		for i, aElem := range av {
			if !Equal(aElem, bv[i]) {
				return false
			}
		}

		return true
	case bool:
		bv, ok := b.(bool)

		return ok && av == bv
	case string:
		bv, ok := b.(string)

		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

// toFloat widens any numeric tree value to float64. json.Number is parsed
// so documents decoded with UseNumber compare like plainly decoded ones.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)

		return f, err == nil
	default:
		return 0, false
	}
}
