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

package codec

import (
	jsonstd "encoding/json"

	"github.com/goccy/go-json"

	"github.com/united-manufacturing-hub/docjournal/pkg/logger"
	"github.com/united-manufacturing-hub/docjournal/pkg/metrics"
)

// MarshalJSON encodes val with goccy/go-json. goccy panics on some inputs
// the stdlib handles; the panic is recovered and the encode retried with
// encoding/json.
func MarshalJSON(val any) (encoded []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncErrorCount(metrics.ComponentCodec, "marshal")
			logger.For(logger.ComponentCodec).Warnf("goccy failed to encode, falling back to stdlib: %v", r)

			encoded, err = jsonstd.Marshal(val)
		}
	}()

	encoded, err = json.Marshal(val)

	return encoded, err
}

// UnmarshalJSON decodes data into val with goccy/go-json, falling back to
// encoding/json when goccy panics.
func UnmarshalJSON(data []byte, val any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncErrorCount(metrics.ComponentCodec, "unmarshal")
			logger.For(logger.ComponentCodec).Warnf("goccy failed to decode, falling back to stdlib: %v", r)

			err = jsonstd.Unmarshal(data, val)
		}
	}()

	err = json.Unmarshal(data, val)

	return err
}
