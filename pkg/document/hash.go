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
	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// Hash returns a 64-bit content hash of a tree value.
//
// The hash is xxhash.Sum64 over the canonical JSON encoding (map keys
// sorted by the encoder), so two structurally equal trees hash equal.
// Collisions are possible and acceptable for the only use the engine
// makes of this: skipping diff computation when before and after hash
// the same. Values that cannot be JSON-encoded return an error; callers
// treat that as "hash unavailable" and take the slow path.
func Hash(v interface{}) (uint64, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	return xxhash.Sum64(buf), nil
}
