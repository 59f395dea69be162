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
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Serialize encodes the current tree. Both encoders emit map keys in
// sorted order, so serializing unchanged state is byte-stable.
func (c *Container) Serialize(opts SerializeOptions) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch opts.Format {
	case FormatYAML:
		return yaml.Marshal(c.tree)
	case FormatJSON, "":
		if opts.Indent > 0 {
			return json.MarshalIndent(c.tree, "", strings.Repeat(" ", opts.Indent))
		}

		return json.Marshal(c.tree)
	default:
		return nil, fmt.Errorf("unknown serialization format %q", opts.Format)
	}
}
